package parser

import (
	"strings"

	"github.com/yurifrl/txnclass/pkg/models"
)

// PayPalParser handles PayPal activity downloads: named columns, free-text
// vendor in the Name column, signed amounts. Only completed payments count;
// everything else in the download (pending rows, currency conversions,
// refund legs) is dropped up front.
type PayPalParser struct {
	account string
}

func NewPayPalParser(account string) *PayPalParser {
	if account == "" {
		account = "paypal"
	}
	return &PayPalParser{account: account}
}

var paypalDateLayouts = []string{"02/01/2006", "2/1/2006"}

var paypalEligibleTypes = []string{"eBay Auction Payment", "Express Checkout Payment"}

// EligibleRow keeps only completed payment rows, mirroring the pre-filter
// the raw download needs before its rows mean anything.
func (p *PayPalParser) EligibleRow(raw models.RawTransaction) bool {
	if strings.TrimSpace(raw["Status"]) != "Completed" {
		return false
	}
	rowType := strings.TrimSpace(raw["Type"])
	for _, t := range paypalEligibleTypes {
		if rowType == t {
			return true
		}
	}
	return false
}

func (p *PayPalParser) FormatTransaction(raw models.RawTransaction) (*models.Transaction, error) {
	date, err := parseDateText("Date", raw["Date"], paypalDateLayouts)
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
		Vendor:    strings.TrimSpace(raw["Name"]),
		Location:  "",
		Amount:    amount,
		Account:   p.account,
	}, nil
}

func (p *PayPalParser) ValidateTransaction(tx *models.Transaction) bool {
	return strings.TrimSpace(tx.Vendor) != ""
}
