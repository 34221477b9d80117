package deals

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRows_HeaderAliases(t *testing.T) {
	rows := []map[string]string{
		{
			"Deal ID":            "d-1",
			"Title":              "Alpha AI",
			"Description":        "Machine learning platform",
			"Industry":           "Tech",
			"Status":             "Open",
			"Target Amount":      "$1,250,000",
			"raised_amount":      "500000",
			"Minimum Investment": "25,000",
			"DueDate":            "2025-03-31",
			"Documents":          "https://example.com/deck.pdf",
			"Image":              "https://example.com/alpha.png",
			"Unrelated Column":   "ignored",
		},
	}

	deals, warnings, err := MapRows(rows)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, deals, 1)

	d := deals[0]
	assert.Equal(t, "d-1", d.ID)
	assert.Equal(t, "Alpha AI", d.Title)
	assert.Equal(t, "Machine learning platform", d.Description)
	assert.Equal(t, "Tech", d.Industry)
	assert.Equal(t, "Open", d.Status)
	assert.Equal(t, 1250000.0, d.TargetAmount)
	assert.Equal(t, 500000.0, d.RaisedAmount)
	assert.Equal(t, 25000.0, d.MinInvestment)
	require.NotNil(t, d.DueDate)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), *d.DueDate)
	assert.Empty(t, d.DueDateRaw)
	assert.Equal(t, "https://example.com/deck.pdf", d.DocumentsLink)
	assert.Equal(t, "https://example.com/alpha.png", d.ImageURL)
	assert.Equal(t, 2, d.Row)
}

func TestMapRows_SkipsRowsMissingRequiredFields(t *testing.T) {
	rows := []map[string]string{
		{"id": "1", "title": "Alpha", "target_amount": "100"},
		{"id": "", "title": "No id", "target_amount": "100"},
		{"id": "3", "title": "", "target_amount": "100"},
		{"id": "4", "title": "No target", "target_amount": ""},
	}

	deals, warnings, err := MapRows(rows)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "1", deals[0].ID)

	require.Len(t, warnings, 3)
	expected := []struct {
		row   int
		field string
	}{
		{3, FieldID},
		{4, FieldTitle},
		{5, FieldTargetAmount},
	}
	for i, exp := range expected {
		assert.Equal(t, exp.row, warnings[i].Row)
		assert.Equal(t, exp.field, warnings[i].Field)
		assert.Equal(t, MissingField, warnings[i].Kind)
		assert.True(t, warnings[i].Skipped)
	}
}

func TestMapRows_DuplicateIDKeepsFirst(t *testing.T) {
	rows := []map[string]string{
		{"id": "1", "title": "First", "target_amount": "100"},
		{"id": "1", "title": "Second", "target_amount": "200"},
	}

	deals, warnings, err := MapRows(rows)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "First", deals[0].Title)

	require.Len(t, warnings, 1)
	assert.Equal(t, DuplicateID, warnings[0].Kind)
	assert.Equal(t, 3, warnings[0].Row)
	assert.True(t, warnings[0].Skipped)
}

func TestMapRows_InvalidAmountsFallBackToZero(t *testing.T) {
	rows := []map[string]string{
		{"id": "1", "title": "Alpha", "target_amount": "100", "raised_amount": "lots", "min_investment": "-5"},
	}

	deals, warnings, err := MapRows(rows)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, 0.0, deals[0].RaisedAmount)
	assert.Equal(t, 0.0, deals[0].MinInvestment)

	require.Len(t, warnings, 2)
	assert.Equal(t, FieldRaisedAmount, warnings[0].Field)
	assert.Equal(t, InvalidNumber, warnings[0].Kind)
	assert.False(t, warnings[0].Skipped)
	assert.Equal(t, FieldMinInvestment, warnings[1].Field)
	assert.Equal(t, NegativeAmount, warnings[1].Kind)
}

func TestMapRows_InvalidDateKeepsRawText(t *testing.T) {
	rows := []map[string]string{
		{"id": "1", "title": "Alpha", "target_amount": "100", "due_date": "end of Q3"},
	}

	deals, warnings, err := MapRows(rows)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Nil(t, deals[0].DueDate)
	assert.Equal(t, "end of Q3", deals[0].DueDateRaw)

	require.Len(t, warnings, 1)
	assert.Equal(t, InvalidDate, warnings[0].Kind)
}

func TestMapRows_BlankRowsIgnored(t *testing.T) {
	rows := []map[string]string{
		{"id": "", "title": "", "target_amount": ""},
		{"id": "1", "title": "Alpha", "target_amount": "100"},
	}

	deals, warnings, err := MapRows(rows)
	require.NoError(t, err)
	assert.Len(t, deals, 1)
	assert.Empty(t, warnings)
}

func TestMapRows_Empty(t *testing.T) {
	deals, warnings, err := MapRows(nil)
	require.NoError(t, err)
	assert.NotNil(t, deals)
	assert.Empty(t, deals)
	assert.Empty(t, warnings)
}

func TestMapRows_NoRecognisedColumns(t *testing.T) {
	rows := []map[string]string{
		{"foo": "1", "bar": "2"},
	}

	_, _, err := MapRows(rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedSource))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		kind WarningKind
	}{
		{"plain", "1500", 1500, ""},
		{"decimal", "12.5", 12.5, ""},
		{"currency decorated", "$ 1,250,000", 1250000, ""},
		{"euro", "€2.000", 2, ""},
		{"space grouping", "1 000", 1000, ""},
		{"non-breaking space", "1\u00a0000", 1000, ""},
		{"empty", "", 0, ""},
		{"whitespace", "   ", 0, ""},
		{"text", "n/a", 0, InvalidNumber},
		{"nan", "NaN", 0, InvalidNumber},
		{"infinity", "Inf", 0, InvalidNumber},
		{"negative", "-100", 0, NegativeAmount},
		{"below int64 range", "9000000000000000000", 9e18, ""},
		{"beyond int64 range", "10000000000000000000", 0, InvalidNumber},
		{"huge exponent", "1e300", 0, InvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, kind := parseAmount(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2025-03-31", true},
		{"03/31/2025", true},
		{"3/31/2025", true},
		{"March 31, 2025", true},
		{"Mar 31, 2025", true},
		{"31 March 2025", true},
		{"2025-03-31T10:00:00Z", true},
		{"soon", false},
		{"31/03/2025", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, ok := parseDueDate(tt.in)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestTableToRows(t *testing.T) {
	table := [][]string{
		{"\ufeffID", "Title", "", "Title", "Status"},
		{"1", "Alpha", "junk", "Dup", "Open"},
		{"2", "Beta"},
	}

	rows := TableToRows(table)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"ID": "1", "Title": "Alpha", "Status": "Open"}, rows[0])
	assert.Equal(t, map[string]string{"ID": "2", "Title": "Beta", "Status": ""}, rows[1])

	assert.Empty(t, TableToRows(nil))
	assert.Empty(t, TableToRows([][]string{{"ID"}}))
}
