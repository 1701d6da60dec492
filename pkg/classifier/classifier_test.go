package classifier

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/yurifrl/txnclass/pkg/models"
)

func strPtr(s string) *string { return &s }

// trainingSet builds a clearly separable history: grocery vendors and fuel
// vendors with disjoint vocabularies, plus a few uncategorized rows drawn
// from each side.
func trainingSet() []models.Transaction {
	day := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	var txs []models.Transaction
	for i := 0; i < 15; i++ {
		txs = append(txs, models.Transaction{
			ID:        fmt.Sprintf("groc-%d", i),
			Vendor:    "woolworths supermarket",
			Account:   "ing",
			Location:  "sydney",
			Amount:    -50,
			TransDate: day.AddDate(0, 0, i),
			Category:  strPtr("GROCERIES"),
		})
		txs = append(txs, models.Transaction{
			ID:        fmt.Sprintf("fuel-%d", i),
			Vendor:    "shell petrol station",
			Account:   "nab",
			Location:  "melbourne",
			Amount:    -80,
			TransDate: day.AddDate(0, 0, i),
			Category:  strPtr("FUEL"),
		})
	}

	txs = append(txs,
		models.Transaction{
			ID:        "pred-groc",
			Vendor:    "woolworths metro",
			Account:   "ing",
			Location:  "sydney",
			Amount:    -42,
			TransDate: day,
		},
		models.Transaction{
			ID:        "pred-fuel",
			Vendor:    "shell coles express petrol",
			Account:   "nab",
			Location:  "melbourne",
			Amount:    -75,
			TransDate: day,
		},
	)
	return txs
}

func testOptions() Options {
	return Options{Trees: 50, Holdout: 0.2, Seed: 0, MinTrainRows: 10}
}

func TestTrainAndClassify(t *testing.T) {
	txs := trainingSet()
	res, err := TrainAndClassify(txs, testOptions(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("TrainAndClassify failed: %v", err)
	}

	if len(res.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(res.Predictions))
	}

	byID := map[string]string{}
	for _, p := range res.Predictions {
		byID[p.ID] = p.Category
	}
	if byID["pred-groc"] != "GROCERIES" {
		t.Errorf("pred-groc classified as %q, want GROCERIES", byID["pred-groc"])
	}
	if byID["pred-fuel"] != "FUEL" {
		t.Errorf("pred-fuel classified as %q, want FUEL", byID["pred-fuel"])
	}

	if res.HoldoutRows == 0 {
		t.Error("expected a non-empty holdout split")
	}
	if res.Accuracy < 0.5 {
		t.Errorf("holdout accuracy %v suspiciously low for separable data", res.Accuracy)
	}
}

func TestTrainNeverRelabelsCategorizedRows(t *testing.T) {
	txs := trainingSet()
	res, err := TrainAndClassify(txs, testOptions(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("TrainAndClassify failed: %v", err)
	}

	categorized := map[string]bool{}
	for _, tx := range txs {
		if tx.Category != nil {
			categorized[tx.ID] = true
		}
	}
	for _, p := range res.Predictions {
		if categorized[p.ID] {
			t.Errorf("prediction emitted for already-categorized row %s", p.ID)
		}
	}
}

func TestTrainLabelsAreUppercased(t *testing.T) {
	txs := trainingSet()
	// Mix label case in the history; encoding must fold them together.
	for i := range txs {
		if txs[i].Category != nil && *txs[i].Category == "GROCERIES" && i%2 == 0 {
			txs[i].Category = strPtr("groceries")
		}
	}

	res, err := TrainAndClassify(txs, testOptions(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("TrainAndClassify failed: %v", err)
	}
	if len(res.Labels) != 2 {
		t.Errorf("expected 2 labels after case folding, got %v", res.Labels)
	}
}

func TestTrainInsufficientRows(t *testing.T) {
	txs := trainingSet()[:4]

	_, err := TrainAndClassify(txs, testOptions(), log.New(io.Discard))
	var trainErr *TrainingError
	if !errors.As(err, &trainErr) {
		t.Fatalf("expected TrainingError, got %v", err)
	}
}

func TestTrainSingleLabel(t *testing.T) {
	day := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	var txs []models.Transaction
	for i := 0; i < 12; i++ {
		txs = append(txs, models.Transaction{
			ID:        fmt.Sprintf("t-%d", i),
			Vendor:    "woolworths",
			Account:   "ing",
			TransDate: day,
			Category:  strPtr("GROCERIES"),
		})
	}

	_, err := TrainAndClassify(txs, testOptions(), log.New(io.Discard))
	var trainErr *TrainingError
	if !errors.As(err, &trainErr) {
		t.Fatalf("expected TrainingError for single label, got %v", err)
	}
}
