// =============================================================================
// Retail Schema Loader - Row Sanitizer
// =============================================================================
//
// This module normalizes the raw text fields of the retail dataset into typed
// values. The dataset is messy export data: invoice dates appear in several
// regional formats, quantities and prices are sometimes blank or non-numeric,
// and customer identifiers are stored as floats ("17850.0").
//
// PARSING CONTRACT:
//   Every parser returns (value, error) and never panics. The decision to turn
//   a failed parse into a null document field is made once, by the document
//   builders, so the null-on-failure policy lives in exactly one place instead
//   of being buried inside each parser.
//
// SUPPORTED DATE FORMATS (tried in order):
//   - "01-12-2010 08:26"    day-month-year with time
//   - "01/12/2010 08:26"    slash-separated variant
//   - "2010-12-01 08:26:00" ISO-like variant
//   plus a permissive day-first fallback for unpadded, seconds-bearing, and
//   date-only values.
//
// =============================================================================

package sanitize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// PARSE ERRORS
// =============================================================================

// ParseError describes a single field value that could not be coerced.
// Callers decide whether a failed parse becomes a null field or a rejected
// record; it is never fatal on its own.
type ParseError struct {
	// Kind is the target type: "date", "integer", or "decimal".
	Kind string

	// Value is the raw input that failed to parse.
	Value string

	// Err is the underlying cause, if a library call produced one.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s from %q: %v", e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s from %q: no known format matches", e.Kind, e.Value)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// DATE PARSING
// =============================================================================

// dateLayouts are the formats observed in the dataset, tried first.
var dateLayouts = []string{
	"02-01-2006 15:04",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
}

// fallbackLayouts is the permissive day-first net for values the primary
// layouts reject: unpadded days/months, trailing seconds, bare dates.
var fallbackLayouts = []string{
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate coerces a raw invoice date string to a timestamp.
//
// PARAMETERS:
//   - raw: The text value from the InvoiceDate column.
//
// RETURNS:
//   - The parsed timestamp (UTC, no zone information in the dataset).
//   - A *ParseError if the value is empty or matches no known layout.
func ParseDate(raw string) (time.Time, error) {
	txt := strings.TrimSpace(raw)
	if txt == "" {
		return time.Time{}, &ParseError{Kind: "date", Value: raw}
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, txt); err == nil {
			return ts, nil
		}
	}

	for _, layout := range fallbackLayouts {
		if ts, err := time.Parse(layout, txt); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, &ParseError{Kind: "date", Value: raw}
}

// =============================================================================
// NUMERIC PARSING
// =============================================================================

// ParseFloat coerces a raw string to a float64.
// Empty and non-numeric values are errors, not zeros.
func ParseFloat(raw string) (float64, error) {
	txt := strings.TrimSpace(raw)
	if txt == "" {
		return 0, &ParseError{Kind: "decimal", Value: raw}
	}

	f, err := strconv.ParseFloat(txt, 64)
	if err != nil {
		return 0, &ParseError{Kind: "decimal", Value: raw, Err: err}
	}
	return f, nil
}

// ParseInt coerces a raw string to an int64.
//
// The dataset stores integer identifiers in float notation ("17850.0"), so a
// plain integer parse is tried first and float-shaped input is accepted as a
// second attempt, truncated toward zero.
//
// RETURNS:
//   - The parsed integer.
//   - A *ParseError if the value is empty, non-numeric, or not finite.
func ParseInt(raw string) (int64, error) {
	txt := strings.TrimSpace(raw)
	if txt == "" {
		return 0, &ParseError{Kind: "integer", Value: raw}
	}

	if n, err := strconv.ParseInt(txt, 10, 64); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(txt, 64)
	if err != nil {
		return 0, &ParseError{Kind: "integer", Value: raw, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ParseError{Kind: "integer", Value: raw}
	}
	return int64(f), nil
}

// =============================================================================
// INVOICE NUMBER CLASSIFICATION
// =============================================================================

// IsCancellation reports whether an invoice number denotes a cancellation.
// Cancellations are marked by a leading "C" in this dataset; the empty string
// is not a cancellation.
func IsCancellation(invoiceNo string) bool {
	return strings.HasPrefix(invoiceNo, "C")
}
