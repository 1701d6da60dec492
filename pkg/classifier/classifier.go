// Package classifier trains a random forest on the already-categorized
// transaction history and predicts categories for the rows the seed-word
// rules could not label.
package classifier

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	randomforest "github.com/malaschitz/randomForest"

	"github.com/yurifrl/txnclass/pkg/models"
)

// TrainingError means the history cannot support training — typically too
// few categorized rows. It is fatal for the classification run, never
// silently skipped.
type TrainingError struct {
	Reason string
}

func (e *TrainingError) Error() string {
	return "cannot train classifier: " + e.Reason
}

// Options tune the training run.
type Options struct {
	// Trees is the forest size.
	Trees int
	// Holdout is the fraction of categorized rows reserved for the
	// accuracy report.
	Holdout float64
	// Seed fixes the holdout shuffle for reproducible splits.
	Seed int64
	// MinTrainRows is the smallest categorized history worth training on.
	MinTrainRows int
}

// DefaultOptions mirror the production run configuration.
func DefaultOptions() Options {
	return Options{Trees: 1000, Holdout: 0.2, Seed: 0, MinTrainRows: 10}
}

// Prediction is one classified row: the transaction id and the predicted
// category label.
type Prediction struct {
	ID       string
	Category string
}

// Result reports what a training run did.
type Result struct {
	Predictions []Prediction
	// Accuracy on the holdout split; NaN-free — when the holdout is empty
	// it stays zero and HoldoutRows says so.
	Accuracy    float64
	TrainRows   int
	HoldoutRows int
	Labels      []string
}

// TrainAndClassify fits the featurizer over the full history, trains on the
// categorized rows and predicts a category for every uncategorized one.
// Rows that already have a category are never re-labeled.
func TrainAndClassify(txs []models.Transaction, opts Options, logger *log.Logger) (*Result, error) {
	if opts.Trees <= 0 || opts.MinTrainRows <= 0 {
		return nil, fmt.Errorf("invalid options: trees=%d min_train_rows=%d", opts.Trees, opts.MinTrainRows)
	}

	var categorized, uncategorized []models.Transaction
	for _, tx := range txs {
		if tx.Category != nil {
			categorized = append(categorized, tx)
		} else {
			uncategorized = append(uncategorized, tx)
		}
	}

	if len(categorized) < opts.MinTrainRows {
		return nil, &TrainingError{Reason: fmt.Sprintf("%d categorized rows, need at least %d", len(categorized), opts.MinTrainRows)}
	}

	labels, labelIdx := encodeLabels(categorized)
	if len(labels) < 2 {
		return nil, &TrainingError{Reason: fmt.Sprintf("only %d distinct category label(s)", len(labels))}
	}

	// Vocabularies come from the full row set so the prediction rows share
	// the training feature space.
	feat := FitFeaturizer(txs)

	x := make([][]float64, len(categorized))
	y := make([]int, len(categorized))
	for i, tx := range categorized {
		x[i] = feat.Vector(tx)
		y[i] = labelIdx[strings.ToUpper(*tx.Category)]
	}

	trainIdx, testIdx := split(len(categorized), opts.Holdout, opts.Seed)

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = x[idx]
		trainY[i] = y[idx]
	}

	logger.Info("training classifier",
		"rows", len(categorized),
		"holdout", len(testIdx),
		"labels", len(labels),
		"features", feat.Dim(),
		"trees", opts.Trees)

	forest := randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: trainX, Class: trainY}
	forest.Train(opts.Trees)

	res := &Result{
		TrainRows:   len(trainIdx),
		HoldoutRows: len(testIdx),
		Labels:      labels,
	}

	if len(testIdx) > 0 {
		correct := 0
		for _, idx := range testIdx {
			if argmax(forest.Vote(x[idx])) == y[idx] {
				correct++
			}
		}
		res.Accuracy = float64(correct) / float64(len(testIdx))
		logger.Info("holdout accuracy", "accuracy", fmt.Sprintf("%.3f", res.Accuracy), "rows", len(testIdx))
	} else {
		logger.Warn("holdout empty, skipping accuracy report")
	}

	for _, tx := range uncategorized {
		pred := argmax(forest.Vote(feat.Vector(tx)))
		if pred < 0 || pred >= len(labels) {
			continue
		}
		res.Predictions = append(res.Predictions, Prediction{ID: tx.ID, Category: labels[pred]})
	}

	logger.Info("classified transactions", "uncategorized", len(uncategorized), "predicted", len(res.Predictions))
	return res, nil
}

// encodeLabels uppercases and densely indexes the distinct category labels,
// returning the reverse mapping (index -> label) and the forward one.
func encodeLabels(categorized []models.Transaction) ([]string, map[string]int) {
	seen := map[string]struct{}{}
	for _, tx := range categorized {
		seen[strings.ToUpper(*tx.Category)] = struct{}{}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	idx := make(map[string]int, len(labels))
	for i, label := range labels {
		idx[label] = i
	}
	return labels, idx
}

// split shuffles row indices with the fixed seed and carves off the holdout
// fraction.
func split(n int, holdout float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	cut := int(float64(n) * holdout)
	return perm[cut:], perm[:cut]
}

func argmax(votes []float64) int {
	best := -1
	bestV := 0.0
	for i, v := range votes {
		if best == -1 || v > bestV {
			best = i
			bestV = v
		}
	}
	return best
}
