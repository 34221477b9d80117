// Package deals holds the deal record model and the pipeline that turns
// spreadsheet rows into filtered, display-ready deal cards.
package deals

import (
	"time"
)

// Deal is one investment opportunity read from the spreadsheet.
// Values are snapshots: a Deal is never mutated after the batch is built.
type Deal struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Industry      string     `json:"industry"`
	Status        string     `json:"status"` // open-ended, never validated against a fixed set
	TargetAmount  float64    `json:"target_amount"`
	RaisedAmount  float64    `json:"raised_amount"`
	MinInvestment float64    `json:"min_investment"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	DueDateRaw    string     `json:"due_date_raw,omitempty"` // cell text, kept when it does not parse
	DocumentsLink string     `json:"documents_link,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	Row           int        `json:"row"` // 1-based sheet row, header is row 1
}

// Batch is the complete result of one fetch from the sheet source.
// A batch is replaced wholesale on refresh.
type Batch struct {
	ID        string       `json:"id"`
	Deals     []Deal       `json:"deals"`
	FetchedAt time.Time    `json:"fetched_at"`
	Warnings  []RowWarning `json:"warnings"`
	Stale     bool         `json:"stale"`
	LastError string       `json:"last_error,omitempty"`
}

// Find returns the deal with the given id
func (b *Batch) Find(id string) (Deal, bool) {
	for _, d := range b.Deals {
		if d.ID == id {
			return d, true
		}
	}
	return Deal{}, false
}

// SkippedRows counts warnings that caused a row to be dropped
func (b *Batch) SkippedRows() int {
	n := 0
	for _, w := range b.Warnings {
		if w.Skipped {
			n++
		}
	}
	return n
}

// staleCopy returns a shallow copy of b marked as stale.
// The deal slice is shared; deals are read-only.
func (b *Batch) staleCopy(cause error) *Batch {
	cp := *b
	cp.Stale = true
	if cause != nil {
		cp.LastError = cause.Error()
	}
	return &cp
}

// SourceInfo describes the sheet deals are read from
type SourceInfo struct {
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Worksheet string `json:"worksheet,omitempty"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
	URL       string `json:"url,omitempty"`
}
