package parser

import (
	"testing"

	"github.com/yurifrl/txnclass/pkg/models"
)

func TestCalcIDDeterministic(t *testing.T) {
	raw := models.RawTransaction{
		"Date":        "01/03/2021",
		"Description": "WOOLWORTHS-PURCHASE-InSYDNEY-Date02/03/2021-CardXXXX",
		"Debit":       "45.20",
		"Credit":      "",
	}

	first := CalcID(raw)
	for i := 0; i < 10; i++ {
		if got := CalcID(raw); got != first {
			t.Fatalf("CalcID not deterministic: %s != %s", got, first)
		}
	}

	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d (%s)", len(first), first)
	}
}

func TestCalcIDKeyOrderIndependent(t *testing.T) {
	// Build the same logical row twice with different insertion orders.
	a := models.RawTransaction{}
	a["Date"] = "01/03/2021"
	a["Debit"] = "45.20"
	a["Credit"] = ""
	a["Description"] = "WOOLWORTHS-PURCHASE"

	b := models.RawTransaction{}
	b["Description"] = "WOOLWORTHS-PURCHASE"
	b["Credit"] = ""
	b["Debit"] = "45.20"
	b["Date"] = "01/03/2021"

	if CalcID(a) != CalcID(b) {
		t.Error("ids differ for identical rows with different key insertion order")
	}
}

func TestCalcIDDistinguishesRows(t *testing.T) {
	a := models.RawTransaction{"Date": "01/03/2021", "Debit": "45.20"}
	b := models.RawTransaction{"Date": "01/03/2021", "Debit": "45.21"}

	if CalcID(a) == CalcID(b) {
		t.Error("different rows produced the same id")
	}
}
