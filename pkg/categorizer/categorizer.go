// Package categorizer assigns spend categories to vendor names using
// seed-word rules loaded from a CSV configuration file. Rule order is
// significant: the first category whose seed word appears in the vendor
// wins, so the configuration file's ordering is preserved exactly.
package categorizer

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Rule maps one category label to its ordered seed words.
type Rule struct {
	Category  string
	SeedWords []string
}

// Categorizer holds the ordered rule set for the life of a run.
type Categorizer struct {
	rules  []Rule
	logger *log.Logger
}

// New builds a categorizer from an already-ordered rule slice.
func New(rules []Rule, logger *log.Logger) *Categorizer {
	return &Categorizer{rules: rules, logger: logger}
}

// Load reads the category configuration CSV. Expected columns:
// Category,SeedWords with the seed words comma-joined inside the second
// cell. File order is kept as-is.
func Load(path string, logger *log.Logger) (*Categorizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open categories file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read categories csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("categories file %s has no rules", path)
	}

	rules := make([]Rule, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		category := strings.TrimSpace(rec[0])
		if category == "" {
			continue
		}

		var seeds []string
		for _, word := range strings.Split(rec[1], ",") {
			if word = strings.TrimSpace(word); word != "" {
				seeds = append(seeds, word)
			}
		}
		rules = append(rules, Rule{Category: category, SeedWords: seeds})
	}

	logger.Debug("loaded category rules", "path", path, "categories", len(rules))
	return New(rules, logger), nil
}

// Categorize returns the category for a vendor name, or nil when no seed
// word matches. Matching is a case-insensitive substring test against the
// normalized vendor (uppercased, apostrophes stripped, trimmed); categories
// and their seed words are tried strictly in load order.
func (c *Categorizer) Categorize(vendor string) *string {
	vendor = strings.TrimSpace(strings.ReplaceAll(strings.ToUpper(vendor), "'", ""))
	if vendor == "" {
		return nil
	}

	for _, rule := range c.rules {
		for _, seed := range rule.SeedWords {
			if strings.Contains(vendor, strings.ToUpper(seed)) {
				category := rule.Category
				return &category
			}
		}
	}
	return nil
}

// Rules exposes the loaded rule set, mainly for run logging.
func (c *Categorizer) Rules() []Rule {
	return c.rules
}
