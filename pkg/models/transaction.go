package models

import "time"

// RawTransaction is one row of an institution export exactly as it came off
// the file: column name to cell text. It only lives for the duration of
// parsing; everything downstream works on Transaction.
type RawTransaction map[string]string

// Transaction is the normalized, source-independent transaction record.
type Transaction struct {
	// ID is a content-derived fingerprint of the raw row, stable across
	// re-imports. It is the primary key in the store.
	ID string

	// Date is the statement date. TransDate is when the purchase actually
	// happened; when the source does not carry it, TransDate equals Date.
	Date      time.Time
	TransDate time.Time

	Vendor   string
	Location string

	// Amount is signed: debits negative, credits positive.
	Amount float64

	// Account tags which institution account the row came from, so multiple
	// accounts at the same bank stay distinguishable.
	Account string

	// Category is nil while the row still needs classification. It is never
	// the empty string.
	Category *string

	// MLAssigned is true when Category came from the statistical classifier
	// rather than the seed-word rules or manual entry.
	MLAssigned bool
}

// CategoryOr returns the category label or the given fallback when the row
// is still unclassified.
func (t *Transaction) CategoryOr(fallback string) string {
	if t.Category == nil {
		return fallback
	}
	return *t.Category
}
