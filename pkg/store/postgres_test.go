package store

import (
	"errors"
	"strings"
	"testing"
)

func TestPersistenceErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &PersistenceError{Op: "insert transaction", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("PersistenceError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "insert transaction") {
		t.Errorf("error message missing op: %s", err.Error())
	}
}

func TestCategoryValue(t *testing.T) {
	if categoryValue(nil) != nil {
		t.Error("nil category should bind as NULL")
	}
	empty := ""
	if categoryValue(&empty) != nil {
		t.Error("empty category should bind as NULL")
	}
	groceries := "GROCERIES"
	if categoryValue(&groceries) != "GROCERIES" {
		t.Error("category should bind as its string value")
	}
}
