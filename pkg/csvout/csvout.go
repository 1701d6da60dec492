// Package csvout renders stored transactions as CSV for external review
// (the dashboard and spreadsheet side of the house live outside this repo).
package csvout

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/yurifrl/txnclass/pkg/models"
)

// FilterFunc decides whether a transaction makes it into the export.
type FilterFunc func(models.Transaction) bool

var header = []string{"id", "date", "trans_date", "vendor", "location", "amount", "account", "category", "ml_assigned"}

// Create renders the transactions, optionally filtered, as a CSV document.
func Create(txs []models.Transaction, filter FilterFunc) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, tx := range txs {
		if filter != nil && !filter(tx) {
			continue
		}
		record := []string{
			tx.ID,
			tx.Date.Format("2006-01-02"),
			tx.TransDate.Format("2006-01-02"),
			tx.Vendor,
			tx.Location,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			tx.Account,
			tx.CategoryOr(""),
			strconv.FormatBool(tx.MLAssigned),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
