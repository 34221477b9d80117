package deals

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is matched by every error returned when no batch
// could be produced, neither fresh nor stale.
var ErrSourceUnavailable = errors.New("deal source unavailable")

// ErrMalformedSource marks a source response that cannot be interpreted as a deal sheet.
var ErrMalformedSource = errors.New("malformed deal sheet")

// SourceUnavailableError wraps the underlying cause of a failed fetch
type SourceUnavailableError struct {
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSourceUnavailable, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrSourceUnavailable) succeed
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// WarningKind classifies a row-level data problem
type WarningKind string

const (
	// MissingField means a required column was absent or empty; the row is skipped
	MissingField WarningKind = "missing_field"
	// InvalidNumber means a numeric cell did not parse; 0 was used instead
	InvalidNumber WarningKind = "invalid_number"
	// NegativeAmount means a numeric cell was below zero; 0 was used instead
	NegativeAmount WarningKind = "negative_amount"
	// InvalidDate means the due date did not parse; the raw text is kept
	InvalidDate WarningKind = "invalid_date"
	// DuplicateID means an earlier row already used the id; the row is skipped
	DuplicateID WarningKind = "duplicate_id"
)

// RowWarning is a recovered, non-fatal problem with one sheet row
type RowWarning struct {
	Row     int         `json:"row"`
	DealID  string      `json:"deal_id,omitempty"`
	Field   string      `json:"field"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
	Skipped bool        `json:"skipped"`
}

func (w RowWarning) String() string {
	return fmt.Sprintf("row %d: %s (%s)", w.Row, w.Message, w.Field)
}
