package parser

import "fmt"

// ParseError reports a malformed or missing field in a raw row. It is a
// row-level error: the pipeline skips and logs the row rather than aborting
// the batch.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad field %s=%q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("bad field %s=%q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AmbiguousAmountError means neither the debit nor the credit column carried
// a value, so the row has no amount at all.
type AmbiguousAmountError struct {
	Debit  string
	Credit string
}

func (e *AmbiguousAmountError) Error() string {
	return fmt.Sprintf("no amount: debit=%q credit=%q", e.Debit, e.Credit)
}

// UnknownDateFormatError means none of the date layouts configured for the
// source matched the raw text.
type UnknownDateFormatError struct {
	Field string
	Value string
}

func (e *UnknownDateFormatError) Error() string {
	return fmt.Sprintf("unknown date format for %s: %q", e.Field, e.Value)
}
