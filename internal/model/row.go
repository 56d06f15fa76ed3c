// Package model defines the data types shared across the analysis pipeline.
package model

import "time"

// RawRow is a single record of the source spreadsheet, untouched. Date fields
// stay raw strings here; the loader decides which one applies and parses it.
type RawRow struct {
	Beneficiary    string
	Operator       string
	Activity       string // free text with a leading action code
	Event          string
	CompletionDate string // DD/MM/YYYY
	ProposedDate   string // DD/MM/YYYY
	SourceLine     int    // 1-based spreadsheet line, the header being line 1
}

// ValidRow is a raw row that survived classification.
type ValidRow struct {
	RawRow
	Code    string     // always a tariff key
	Type    string     // leading letter of Code
	RefDate *time.Time // nil when the chosen date field did not parse
	Period  Period     // zero when RefDate is nil
}

// DiscardedRow is a raw row removed by classification, with the reason it
// was excluded. Discard reasons are data, never errors.
type DiscardedRow struct {
	RawRow
	Reason string
}
