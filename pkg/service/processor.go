// Package service wires the import pipeline together: parse, validate,
// rule-categorize, reconcile against the store, persist — and the periodic
// classify pass that labels whatever the rules could not.
package service

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/txnclass/pkg/categorizer"
	"github.com/yurifrl/txnclass/pkg/classifier"
	"github.com/yurifrl/txnclass/pkg/config"
	"github.com/yurifrl/txnclass/pkg/models"
	"github.com/yurifrl/txnclass/pkg/parser"
	"github.com/yurifrl/txnclass/pkg/reconcile"
)

// Store is the slice of the transaction store the pipeline needs.
type Store interface {
	InsertBatch(ctx context.Context, txs []*models.Transaction) (int, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	All(ctx context.Context) ([]models.Transaction, error)
	UpdateCategories(ctx context.Context, categories map[string]string) (int, error)
}

// Processor runs import and classification batches.
type Processor struct {
	cfg    *config.Config
	store  Store
	rules  *categorizer.Categorizer
	parser *parser.Parser
	logger *log.Logger
}

func NewProcessor(cfg *config.Config, store Store, rules *categorizer.Categorizer, logger *log.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		store:  store,
		rules:  rules,
		parser: parser.New(logger),
		logger: logger,
	}
}

// ImportSummary aggregates one import run across all manifest statements.
type ImportSummary struct {
	// Accepted counts transactions that survived parsing and validation;
	// Skipped and Filtered account for the rest of the raw rows.
	Accepted    int
	Skipped     int
	Filtered    int
	New         int
	Existing    int
	Inserted    int
	Categorized int
}

// ImportManifest processes every statement in the manifest. Row-level
// failures inside a statement are logged and skipped; a statement that
// cannot be read at all fails the run, as does any store error.
func (p *Processor) ImportManifest(ctx context.Context, m *models.Manifest, dryRun bool) (*ImportSummary, error) {
	summary := &ImportSummary{}

	for _, st := range m.Statements {
		if err := p.importStatement(ctx, st, dryRun, summary); err != nil {
			return nil, fmt.Errorf("statement %s: %w", st.FilePath, err)
		}
	}

	p.logger.Info("import run complete",
		"accepted", summary.Accepted,
		"skipped", summary.Skipped,
		"filtered", summary.Filtered,
		"new", summary.New,
		"existing", summary.Existing,
		"inserted", summary.Inserted,
		"rule_categorized", summary.Categorized,
		"dry_run", dryRun)

	return summary, nil
}

func (p *Processor) importStatement(ctx context.Context, st models.Statement, dryRun bool, summary *ImportSummary) error {
	path, err := st.File()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	res, err := p.parser.Parse(parser.Source(st.Source), st.Account, f)
	if err != nil {
		return err
	}

	summary.Accepted += len(res.Transactions)
	summary.Skipped += res.Skipped
	summary.Filtered += res.Filtered

	// Rule pass: first matching seed word wins; everything else stays nil
	// for the classifier.
	for _, tx := range res.Transactions {
		if tx.Category = p.rules.Categorize(tx.Vendor); tx.Category != nil {
			summary.Categorized++
		}
	}

	ids := make([]string, len(res.Transactions))
	for i, tx := range res.Transactions {
		ids[i] = tx.ID
	}
	existing, err := p.store.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}

	report := reconcile.Build(res.Transactions, existing)
	summary.New += report.MissingCount()
	summary.Existing += report.InSyncCount()

	p.logger.Info("reconciled statement",
		"source", st.Source,
		"account", st.Account,
		"new", report.MissingCount(),
		"already_stored", report.InSyncCount())

	if dryRun {
		return nil
	}

	inserted, err := p.store.InsertBatch(ctx, report.ToAdd())
	if err != nil {
		return err
	}
	summary.Inserted += inserted
	return nil
}

// Classify trains on the stored history and writes predicted categories
// back for rows the rule pass left unlabeled. Training failures surface to
// the caller; they are never swallowed.
func (p *Processor) Classify(ctx context.Context, dryRun bool) (*classifier.Result, error) {
	history, err := p.store.All(ctx)
	if err != nil {
		return nil, err
	}

	opts := classifier.Options{
		Trees:        p.cfg.Classifier.Trees,
		Holdout:      p.cfg.Classifier.Holdout,
		Seed:         p.cfg.Classifier.Seed,
		MinTrainRows: p.cfg.Classifier.MinTrainRows,
	}

	result, err := classifier.TrainAndClassify(history, opts, p.logger)
	if err != nil {
		return nil, err
	}

	if dryRun || len(result.Predictions) == 0 {
		return result, nil
	}

	categories := make(map[string]string, len(result.Predictions))
	for _, pred := range result.Predictions {
		categories[pred.ID] = pred.Category
	}

	if _, err := p.store.UpdateCategories(ctx, categories); err != nil {
		return nil, err
	}
	return result, nil
}
