package deals

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Canonical field names used by the mapper and in row warnings
const (
	FieldID            = "id"
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldIndustry      = "industry"
	FieldStatus        = "status"
	FieldTargetAmount  = "target_amount"
	FieldRaisedAmount  = "raised_amount"
	FieldMinInvestment = "min_investment"
	FieldDueDate       = "due_date"
	FieldDocumentsLink = "documents_link"
	FieldImageURL      = "image_url"
)

// headerAliases maps normalised column headers to canonical field names.
// Headers are normalised by lower-casing and dropping spaces, underscores and hyphens,
// so "Target Amount", "target_amount" and "TargetAmount" all resolve to the same key.
var headerAliases = map[string]string{
	"id":                FieldID,
	"dealid":            FieldID,
	"title":             FieldTitle,
	"description":       FieldDescription,
	"industry":          FieldIndustry,
	"status":            FieldStatus,
	"targetamount":      FieldTargetAmount,
	"target":            FieldTargetAmount,
	"raisedamount":      FieldRaisedAmount,
	"raised":            FieldRaisedAmount,
	"mininvestment":     FieldMinInvestment,
	"minimuminvestment": FieldMinInvestment,
	"duedate":           FieldDueDate,
	"documentslink":     FieldDocumentsLink,
	"documents":         FieldDocumentsLink,
	"imageurl":          FieldImageURL,
	"image":             FieldImageURL,
}

var requiredFields = []string{FieldID, FieldTitle, FieldTargetAmount}

// dueDateLayouts are tried in order when parsing the due date cell
var dueDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// canonicalRow re-keys a source row by canonical field name.
// The first column that resolves to a field wins.
func canonicalRow(row map[string]string) map[string]string {
	out := make(map[string]string, len(row))
	for header, value := range row {
		field, ok := headerAliases[normalizeHeader(header)]
		if !ok {
			continue
		}
		if existing, dup := out[field]; dup && existing != "" {
			continue
		}
		out[field] = strings.TrimSpace(value)
	}
	return out
}

// MapRows converts raw sheet rows into deals.
// rows[0] is sheet row 2 (row 1 holds the headers).
// Rows missing a required field or repeating an id are skipped; bad numbers and
// dates are replaced by defaults. Every recovered problem is returned as a warning.
// ErrMalformedSource is returned when rows exist but none carries a known column.
func MapRows(rows []map[string]string) ([]Deal, []RowWarning, error) {
	deals := make([]Deal, 0, len(rows))
	warnings := make([]RowWarning, 0)
	seen := make(map[string]int, len(rows))
	recognised := false

	for i, raw := range rows {
		rowNum := i + 2
		row := canonicalRow(raw)
		if len(row) > 0 {
			recognised = true
		}
		if isBlankRow(row) {
			continue
		}

		if missing := missingRequired(row); missing != "" {
			warnings = append(warnings, RowWarning{
				Row:     rowNum,
				DealID:  row[FieldID],
				Field:   missing,
				Kind:    MissingField,
				Message: fmt.Sprintf("required field %q is empty", missing),
				Skipped: true,
			})
			continue
		}

		id := row[FieldID]
		if firstRow, dup := seen[id]; dup {
			warnings = append(warnings, RowWarning{
				Row:     rowNum,
				DealID:  id,
				Field:   FieldID,
				Kind:    DuplicateID,
				Message: fmt.Sprintf("id already used by row %d", firstRow),
				Skipped: true,
			})
			continue
		}
		seen[id] = rowNum

		deal := Deal{
			ID:            id,
			Title:         row[FieldTitle],
			Description:   row[FieldDescription],
			Industry:      row[FieldIndustry],
			Status:        row[FieldStatus],
			DocumentsLink: row[FieldDocumentsLink],
			ImageURL:      row[FieldImageURL],
			Row:           rowNum,
		}

		amount := func(field string) float64 {
			v, kind := parseAmount(row[field])
			if kind != "" {
				warnings = append(warnings, RowWarning{
					Row:     rowNum,
					DealID:  id,
					Field:   field,
					Kind:    kind,
					Message: fmt.Sprintf("%q is not a valid amount, using 0", row[field]),
				})
			}
			return v
		}
		deal.TargetAmount = amount(FieldTargetAmount)
		deal.RaisedAmount = amount(FieldRaisedAmount)
		deal.MinInvestment = amount(FieldMinInvestment)

		if rawDate := row[FieldDueDate]; rawDate != "" {
			if t, ok := parseDueDate(rawDate); ok {
				deal.DueDate = &t
			} else {
				deal.DueDateRaw = rawDate
				warnings = append(warnings, RowWarning{
					Row:     rowNum,
					DealID:  id,
					Field:   FieldDueDate,
					Kind:    InvalidDate,
					Message: fmt.Sprintf("%q is not a recognised date", rawDate),
				})
			}
		}

		deals = append(deals, deal)
	}

	if len(rows) > 0 && !recognised {
		return nil, nil, fmt.Errorf("%w: no recognised columns in %d rows", ErrMalformedSource, len(rows))
	}

	return deals, warnings, nil
}

func isBlankRow(row map[string]string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func missingRequired(row map[string]string) string {
	for _, f := range requiredFields {
		if row[f] == "" {
			return f
		}
	}
	return ""
}

// parseAmount parses a currency cell. Empty cells are 0 without a warning.
// A non-empty WarningKind means the cell was replaced by 0.
// maxAmount bounds a single cell so amounts and their sums stay printable as whole units
const maxAmount = float64(math.MaxInt64)

func parseAmount(s string) (float64, WarningKind) {
	cleaned := strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, ""
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, InvalidNumber
	}
	if v < 0 {
		return 0, NegativeAmount
	}
	if v >= maxAmount {
		return 0, InvalidNumber
	}
	return v, ""
}

func parseDueDate(s string) (time.Time, bool) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TableToRows turns a header-first table into rows keyed by header.
// Columns with an empty header are dropped, a repeated header keeps its first
// column, and short rows are padded with empty cells.
func TableToRows(table [][]string) []map[string]string {
	if len(table) == 0 {
		return []map[string]string{}
	}

	headers := make([]string, len(table[0]))
	seen := make(map[string]bool, len(headers))
	for i, h := range table[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		headers[i] = h
	}

	rows := make([]map[string]string, 0, len(table)-1)
	for _, cells := range table[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
