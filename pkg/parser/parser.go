package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/yurifrl/txnclass/pkg/models"
)

// Source identifies the institution an export came from.
type Source string

const (
	SourceING    Source = "ing"
	SourceNAB    Source = "nab"
	SourcePayPal Source = "paypal"
)

// TransactionParser is the per-institution contract: turn a raw row into a
// canonical transaction, and decide whether a formatted transaction is real
// spend or internal movement that must never reach the store.
type TransactionParser interface {
	FormatTransaction(raw models.RawTransaction) (*models.Transaction, error)
	ValidateTransaction(tx *models.Transaction) bool
}

// rowFilter is implemented by parsers that discard raw rows before
// formatting (PayPal drops everything that is not a completed payment).
type rowFilter interface {
	EligibleRow(raw models.RawTransaction) bool
}

// Parser reads institution exports and produces canonical transactions.
type Parser struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Parser {
	return &Parser{logger: logger}
}

// For returns the TransactionParser for a source. An empty account keeps the
// source's default tag.
func (p *Parser) For(source Source, account string) (TransactionParser, error) {
	switch source {
	case SourceING:
		return NewINGParser(account), nil
	case SourceNAB:
		return NewNABParser(account), nil
	case SourcePayPal:
		return NewPayPalParser(account), nil
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}

// Result is what one export yields: the transactions that survived
// formatting and validation, plus counts for run logging.
type Result struct {
	Transactions []*models.Transaction
	Skipped      int // rows that failed to parse
	Filtered     int // rows dropped by validation or row filters
}

// Parse reads an entire export and runs every row through the source parser.
// Rows that fail to parse are skipped and logged with their typed error;
// they never abort the batch.
func (p *Parser) Parse(source Source, account string, r io.Reader) (*Result, error) {
	tp, err := p.For(source, account)
	if err != nil {
		return nil, err
	}

	rows, err := p.readRows(source, r)
	if err != nil {
		return nil, err
	}

	filter, _ := tp.(rowFilter)

	res := &Result{}
	for i, raw := range rows {
		if filter != nil && !filter.EligibleRow(raw) {
			res.Filtered++
			continue
		}

		tx, err := tp.FormatTransaction(raw)
		if err != nil {
			p.logger.Warn("skipping row", "source", source, "row", i+1, "error", err)
			res.Skipped++
			continue
		}

		if !tp.ValidateTransaction(tx) {
			p.logger.Debug("dropping non-spend row", "source", source, "vendor", tx.Vendor)
			res.Filtered++
			continue
		}

		res.Transactions = append(res.Transactions, tx)
	}

	p.logger.Info("parsed export",
		"source", source,
		"rows", len(rows),
		"transactions", len(res.Transactions),
		"skipped", res.Skipped,
		"filtered", res.Filtered)

	return res, nil
}

// readRows turns the CSV into keyed raw rows. ING and PayPal exports carry a
// header line; NAB exports come headerless with a fixed column order.
func (p *Parser) readRows(source Source, r io.Reader) ([]models.RawTransaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// PayPal downloads lead with a BOM glued to a quoted header cell, which
	// strict quoting rejects.
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv is empty")
	}

	if source == SourceNAB {
		return nabRows(records), nil
	}

	header := records[0]
	for i := range header {
		header[i] = trimBOM(strings.TrimSpace(header[i]))
		// Some exports quote header cells; normalize those too.
		header[i] = strings.Trim(header[i], `"`)
	}

	rows := make([]models.RawTransaction, 0, len(records)-1)
	for _, rec := range records[1:] {
		raw := models.RawTransaction{}
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			raw[header[i]] = cell
		}
		if len(raw) > 0 {
			rows = append(rows, raw)
		}
	}
	return rows, nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

// parseAmountText converts exported amount text to a float rounded to
// cents. Exports use comma thousand separators.
func parseAmountText(field, text string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: text, Err: err}
	}
	return math.Round(v*100) / 100, nil
}

// parseDateText tries each layout in order and fails with a typed error if
// none matches.
func parseDateText(field, text string, layouts []string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &UnknownDateFormatError{Field: field, Value: text}
}
