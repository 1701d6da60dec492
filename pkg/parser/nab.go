package parser

import (
	"strings"

	"github.com/yurifrl/txnclass/pkg/models"
)

// NAB transaction history exports come without a header line; the column
// order is fixed. The fourth column is unused padding in the export.
var nabColumns = []string{"Date", "Amount", "Card", "", "Type", "Vendor", "Balance"}

// NABParser handles NAB exports. Columns are positional, the amount is
// already signed, and the same parser serves multiple NAB accounts via the
// account tag.
type NABParser struct {
	account string
}

func NewNABParser(account string) *NABParser {
	if account == "" {
		account = "nab"
	}
	return &NABParser{account: account}
}

var nabDateLayouts = []string{"02-Jan-06", "02 Jan 06"}

const nabCashTransferVendor = "CASH/TRANSFER PAYMENT - THANK YOU"

// nabRows maps positional records onto the fixed column names. Some exports
// do carry the header row; it is recognized by its first cell and dropped.
func nabRows(records [][]string) []models.RawTransaction {
	rows := make([]models.RawTransaction, 0, len(records))
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "Date") {
			continue
		}
		raw := models.RawTransaction{}
		for j, cell := range rec {
			if j >= len(nabColumns) || nabColumns[j] == "" {
				continue
			}
			raw[nabColumns[j]] = cell
		}
		if len(raw) > 0 {
			rows = append(rows, raw)
		}
	}
	return rows
}

func (p *NABParser) FormatTransaction(raw models.RawTransaction) (*models.Transaction, error) {
	date, err := parseDateText("Date", raw["Date"], nabDateLayouts)
	if err != nil {
		return nil, err
	}

	amountText := strings.TrimSpace(raw["Amount"])
	if amountText == "" {
		return nil, &ParseError{Field: "Amount", Value: raw["Amount"]}
	}
	amount, err := parseAmountText("Amount", amountText)
	if err != nil {
		return nil, err
	}

	return &models.Transaction{
		ID:        CalcID(raw),
		Date:      date,
		TransDate: date,
		Vendor:    strings.TrimSpace(raw["Vendor"]),
		Location:  "",
		Amount:    amount,
		Account:   p.account,
	}, nil
}

// ValidateTransaction drops the card-payment reconciliation rows NAB mixes
// into the history; they mirror spend recorded elsewhere.
func (p *NABParser) ValidateTransaction(tx *models.Transaction) bool {
	return tx.Vendor != nabCashTransferVendor
}
