package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/txnclass/pkg/categorizer"
	"github.com/yurifrl/txnclass/pkg/config"
	"github.com/yurifrl/txnclass/pkg/models"
)

// fakeStore keeps transactions in memory with the same insert-or-ignore and
// update-if-null semantics as the real table.
type fakeStore struct {
	rows map[string]*models.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]*models.Transaction{}}
}

func (s *fakeStore) InsertBatch(_ context.Context, txs []*models.Transaction) (int, error) {
	inserted := 0
	for _, tx := range txs {
		if _, ok := s.rows[tx.ID]; ok {
			continue
		}
		clone := *tx
		s.rows[tx.ID] = &clone
		inserted++
	}
	return inserted, nil
}

func (s *fakeStore) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	existing := map[string]bool{}
	for _, id := range ids {
		if _, ok := s.rows[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (s *fakeStore) All(_ context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	for _, tx := range s.rows {
		txs = append(txs, *tx)
	}
	return txs, nil
}

func (s *fakeStore) UpdateCategories(_ context.Context, categories map[string]string) (int, error) {
	updated := 0
	for id, category := range categories {
		tx, ok := s.rows[id]
		if !ok || tx.Category != nil {
			continue
		}
		c := category
		tx.Category = &c
		tx.MLAssigned = true
		updated++
	}
	return updated, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testProcessor(store Store) *Processor {
	logger := log.New(io.Discard)
	rules := categorizer.New([]categorizer.Rule{
		{Category: "GROCERIES", SeedWords: []string{"WOOLWORTHS", "COLES"}},
		{Category: "FUEL", SeedWords: []string{"SHELL"}},
	}, logger)
	cfg := &config.Config{
		Classifier: config.ClassifierConfig{Trees: 50, Holdout: 0.2, Seed: 0, MinTrainRows: 10},
	}
	return NewProcessor(cfg, store, rules, logger)
}

const ingExport = `Date,Description,Debit,Credit
01/03/2021,WOOLWORTHS-PURCHASE-InSYDNEY-Date02/03/2021-CardXXXX,45.20,
02/03/2021,MYSTERY SHOP-PURCHASE-InSYDNEY-Date02/03/2021-CardXXXX,12.00,
03/03/2021,CC PAYMENT-PAYMENT,,200.00
`

const nabExport = `01-Mar-21,-30.00,1234,,EFTPOS,SHELL NEWTOWN,100.00
02-Mar-21,-12.00,1234,,EFTPOS,CASH/TRANSFER PAYMENT - THANK YOU,88.00
`

func TestImportManifest(t *testing.T) {
	dir := t.TempDir()
	ingPath := writeFile(t, dir, "ing.csv", ingExport)
	nabPath := writeFile(t, dir, "nab.csv", nabExport)

	manifest := &models.Manifest{Statements: []models.Statement{
		{Source: "ing", FilePath: ingPath},
		{Source: "nab", FilePath: nabPath, Account: "nab_paul"},
	}}

	store := newFakeStore()
	p := testProcessor(store)

	summary, err := p.ImportManifest(context.Background(), manifest, false)
	if err != nil {
		t.Fatalf("ImportManifest failed: %v", err)
	}

	// CC PAYMENT and CASH/TRANSFER rows never reach the store.
	if summary.Accepted != 3 {
		t.Errorf("accepted = %d, want 3", summary.Accepted)
	}
	if summary.Filtered != 2 {
		t.Errorf("filtered = %d, want 2", summary.Filtered)
	}
	if summary.Inserted != 3 {
		t.Errorf("inserted = %d, want 3", summary.Inserted)
	}
	if len(store.rows) != 3 {
		t.Fatalf("store has %d rows, want 3", len(store.rows))
	}

	// WOOLWORTHS and SHELL got rule categories; MYSTERY SHOP stays nil.
	if summary.Categorized != 2 {
		t.Errorf("rule categorized = %d, want 2", summary.Categorized)
	}
	for _, tx := range store.rows {
		switch tx.Vendor {
		case "WOOLWORTHS":
			if tx.CategoryOr("") != "GROCERIES" {
				t.Errorf("WOOLWORTHS category = %q", tx.CategoryOr(""))
			}
			if tx.MLAssigned {
				t.Error("rule category must not be flagged ml_assigned")
			}
		case "MYSTERY SHOP":
			if tx.Category != nil {
				t.Errorf("MYSTERY SHOP should stay uncategorized, got %q", *tx.Category)
			}
		case "SHELL NEWTOWN":
			if tx.Account != "nab_paul" {
				t.Errorf("account = %q, want nab_paul", tx.Account)
			}
		default:
			t.Errorf("unexpected row in store: %q", tx.Vendor)
		}
	}
}

func TestImportIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ingPath := writeFile(t, dir, "ing.csv", ingExport)
	manifest := &models.Manifest{Statements: []models.Statement{{Source: "ing", FilePath: ingPath}}}

	store := newFakeStore()
	p := testProcessor(store)

	first, err := p.ImportManifest(context.Background(), manifest, false)
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	second, err := p.ImportManifest(context.Background(), manifest, false)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	if first.Inserted != 2 {
		t.Errorf("first run inserted = %d, want 2", first.Inserted)
	}
	if second.Inserted != 0 || second.New != 0 || second.Existing != 2 {
		t.Errorf("second run should be a no-op: %+v", second)
	}
	if len(store.rows) != 2 {
		t.Errorf("store has %d rows after re-import, want 2", len(store.rows))
	}
}

func TestImportDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	ingPath := writeFile(t, dir, "ing.csv", ingExport)
	manifest := &models.Manifest{Statements: []models.Statement{{Source: "ing", FilePath: ingPath}}}

	store := newFakeStore()
	p := testProcessor(store)

	summary, err := p.ImportManifest(context.Background(), manifest, true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if summary.New != 2 {
		t.Errorf("dry run new = %d, want 2", summary.New)
	}
	if len(store.rows) != 0 {
		t.Errorf("dry run wrote %d rows", len(store.rows))
	}
}
