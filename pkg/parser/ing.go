package parser

import (
	"regexp"
	"strings"

	"github.com/yurifrl/txnclass/pkg/models"
)

// INGParser handles ING exports. The interesting part is the Description
// column: a single dash-delimited string packing vendor, transaction type,
// location and the real purchase date into one field, e.g.
//
//	WOOLWORTHS-PURCHASE-InSYDNEY-Date02/03/2021-CardXXXX
type INGParser struct {
	account string
}

func NewINGParser(account string) *INGParser {
	if account == "" {
		account = "ing"
	}
	return &INGParser{account: account}
}

var (
	// Vendor names may themselves contain dashes ("7-ELEVEN", "24-7"). A
	// dash immediately preceded by a digit and followed by a letter or digit
	// is part of the name, so it becomes a space — but only inside the
	// vendor segment, never across a field separator.
	vendorDashRe = regexp.MustCompile(`(\d)-([A-Za-z0-9])`)

	// First field marker after the "vendor-type" head.
	ingMarkerRe    = regexp.MustCompile(`-(?:Receipt|In|To|Date|Card|Time)`)
	ingLocationRe  = regexp.MustCompile(`In(.*?)Date`)
	ingTransDateRe = regexp.MustCompile(`Date(.*?)(?:Card|Time|$)`)
)

var (
	ingDateLayouts      = []string{"02/01/2006"}
	ingTransDateLayouts = []string{"02/01/2006", "2/1/2006", "02/01/06"}
)

// Vendors the row can name without representing real spend: card and PayPal
// settlements, transfers between own accounts.
var ingRestrictedVendors = []string{"PAYPAL", "VISA", "TRANSFER", "PLM PAYMENT", "CC PAYMENT"}

func (p *INGParser) FormatTransaction(raw models.RawTransaction) (*models.Transaction, error) {
	desc, ok := raw["Description"]
	if !ok || strings.TrimSpace(desc) == "" {
		return nil, &ParseError{Field: "Description", Value: desc}
	}

	date, err := parseDateText("Date", raw["Date"], ingDateLayouts)
	if err != nil {
		return nil, err
	}

	amount, err := ingAmount(raw)
	if err != nil {
		return nil, err
	}

	vendor, location, transDateText := splitINGDescription(desc)

	tx := &models.Transaction{
		ID:        CalcID(raw),
		Date:      date,
		TransDate: date,
		Vendor:    vendor,
		Location:  location,
		Amount:    amount,
		Account:   p.account,
	}

	if transDateText != "" {
		if td, err := parseDateText("trans_date", transDateText, ingTransDateLayouts); err == nil {
			tx.TransDate = td
		}
	}

	return tx, nil
}

// ingAmount applies the debit/credit rule: a populated Debit column is a
// negative amount, a populated Credit column a positive one (and wins when
// both are set). Neither populated means the row carries no amount at all.
func ingAmount(raw models.RawTransaction) (float64, error) {
	debit := strings.TrimSpace(raw["Debit"])
	credit := strings.TrimSpace(raw["Credit"])

	if debit == "" && credit == "" {
		return 0, &AmbiguousAmountError{Debit: raw["Debit"], Credit: raw["Credit"]}
	}

	var amount float64
	if debit != "" {
		v, err := parseAmountText("Debit", debit)
		if err != nil {
			return 0, err
		}
		amount = -abs(v)
	}
	if credit != "" {
		v, err := parseAmountText("Credit", credit)
		if err != nil {
			return 0, err
		}
		amount = abs(v)
	}
	return amount, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// splitINGDescription decomposes the composite description. Location sits
// between the "In" and "Date" markers, the transaction date between "Date"
// and the "Card"/"Time" fragment. The head before the first marker is
// "vendor-type", so the vendor is the head up to its last separator — and
// only inside that segment is a digit-adjacent dash neutralized, so a
// vendor ending in a digit ("7-ELEVEN 2104") cannot swallow the type field.
func splitINGDescription(desc string) (vendor, location, transDate string) {
	if m := ingLocationRe.FindStringSubmatch(desc); m != nil {
		location = strings.Trim(m[1], "- ")
	}
	if m := ingTransDateRe.FindStringSubmatch(desc); m != nil {
		transDate = strings.Trim(m[1], "- ")
	}

	head := desc
	if loc := ingMarkerRe.FindStringIndex(desc); loc != nil {
		head = desc[:loc[0]]
	}
	if idx := strings.LastIndex(head, "-"); idx >= 0 {
		head = head[:idx]
	}
	vendor = strings.TrimSpace(vendorDashRe.ReplaceAllString(head, "$1 $2"))
	return vendor, location, transDate
}

// ValidateTransaction drops internal movements: card settlements, PayPal
// sweeps and transfers double-count spend that already appears elsewhere.
func (p *INGParser) ValidateTransaction(tx *models.Transaction) bool {
	if strings.TrimSpace(tx.Vendor) == "" {
		return false
	}
	vendor := strings.ToUpper(tx.Vendor)
	for _, restricted := range ingRestrictedVendors {
		if strings.Contains(vendor, restricted) {
			return false
		}
	}
	return true
}
