package deals

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name    string
		target  float64
		raised  float64
		want    float64
		anomaly bool
	}{
		{"half", 100, 50, 50, false},
		{"nothing raised", 100, 0, 0, false},
		{"fully funded", 200, 200, 100, false},
		{"oversubscribed clamps", 100, 250, 100, false},
		{"zero target", 0, 50, 0, true},
		{"zero target zero raised", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, anomaly := ProgressPercent(Deal{TargetAmount: tt.target, RaisedAmount: tt.raised})
			assert.InDelta(t, tt.want, pct, 1e-9)
			assert.Equal(t, tt.anomaly, anomaly)
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
		})
	}
}

func TestCategorizeStatus(t *testing.T) {
	tests := []struct {
		status string
		want   StatusCategory
		color  string
	}{
		{"Open", CategoryPositive, "#28a745"},
		{"open", CategoryPositive, "#28a745"},
		{"Due Diligence", CategoryCaution, "#ffc107"},
		{"Closed", CategoryClosed, "#dc3545"},
		{"Cancelled", CategoryClosed, "#dc3545"},
		{"Withdrawn", CategoryClosed, "#dc3545"},
		{"Paused", CategoryNeutral, "#6c757d"},
		{"", CategoryNeutral, "#6c757d"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := CategorizeStatus(tt.status)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.color, got.Color())
		})
	}
}

func TestPresenter_FormatCurrency(t *testing.T) {
	p := NewPresenter("en-US", "$")

	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{1234, "$1,234"},
		{1250000, "$1,250,000"},
		{1234.5, "$1,235"},
		{-0.2, "$0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, p.FormatCurrency(tt.in))
		})
	}
}

func TestPresenter_FormatCurrency_BeyondInt64(t *testing.T) {
	p := NewPresenter("en-US", "$")

	for _, amount := range []float64{1e19, 3 * float64(math.MaxInt64)} {
		got := p.FormatCurrency(amount)
		assert.True(t, strings.HasPrefix(got, "$"), got)
		assert.NotContains(t, got, "-")
	}
	assert.True(t, strings.HasPrefix(p.FormatCurrency(-1e19), "-$"))
	assert.Equal(t, "$9,000,000,000,000,000,000", p.FormatCurrency(9e18))
}

func TestPresenter_UnknownLocaleFallsBack(t *testing.T) {
	p := NewPresenter("not a locale!", "€")
	assert.Equal(t, "€1,000", p.FormatCurrency(1000))
}

func TestPresenter_ScenarioCards(t *testing.T) {
	p := NewPresenter("en-US", "$")
	batch := scenarioBatch()

	open := p.Card(batch[0])
	assert.Equal(t, 50.0, open.Progress)
	assert.True(t, open.ShowProgress)
	assert.Equal(t, "50.0%", open.ProgressLabel)
	assert.Equal(t, CategoryPositive, open.StatusCategory)
	assert.True(t, open.CanExpressInterest)
	assert.Equal(t, "$100", open.Target)
	assert.Equal(t, "$50", open.Raised)

	closed := p.Card(batch[1])
	assert.False(t, closed.ShowProgress)
	assert.Empty(t, closed.ProgressLabel)
	assert.Equal(t, CategoryClosed, closed.StatusCategory)
	assert.Equal(t, "status-closed", closed.StatusClass)
	assert.False(t, closed.CanExpressInterest)
	assert.False(t, closed.Oversubscribed)
}

func TestPresenter_Card(t *testing.T) {
	p := NewPresenter("en-US", "$")
	due := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)

	t.Run("oversubscribed keeps category", func(t *testing.T) {
		c := p.Card(Deal{Status: "Open", TargetAmount: 100, RaisedAmount: 150})
		assert.True(t, c.Oversubscribed)
		assert.Equal(t, 100.0, c.Progress)
		assert.Equal(t, CategoryPositive, c.StatusCategory)
	})

	t.Run("zero target anomaly", func(t *testing.T) {
		c := p.Card(Deal{Status: "Open", TargetAmount: 0, RaisedAmount: 10})
		assert.True(t, c.ProgressAnomaly)
		assert.Equal(t, 0.0, c.Progress)
		assert.False(t, c.Oversubscribed)
	})

	t.Run("due date formatted", func(t *testing.T) {
		c := p.Card(Deal{DueDate: &due})
		assert.Equal(t, "July 04, 2025", c.DueDateDisplay)
	})

	t.Run("raw due date shown", func(t *testing.T) {
		c := p.Card(Deal{DueDateRaw: "TBD"})
		assert.Equal(t, "TBD", c.DueDateDisplay)
	})

	t.Run("documents link", func(t *testing.T) {
		assert.True(t, p.Card(Deal{DocumentsLink: "https://example.com/a.pdf"}).HasDocuments)
		assert.False(t, p.Card(Deal{DocumentsLink: "#"}).HasDocuments)
		assert.False(t, p.Card(Deal{DocumentsLink: " "}).HasDocuments)
	})

	t.Run("status class slug", func(t *testing.T) {
		assert.Equal(t, "status-due-diligence", p.Card(Deal{Status: "Due Diligence"}).StatusClass)
		assert.Equal(t, "status-on-hold", p.Card(Deal{Status: " On  Hold! "}).StatusClass)
		assert.Equal(t, "status-unknown", p.Card(Deal{Status: ""}).StatusClass)
	})
}

func TestPresenter_CardsNeverNil(t *testing.T) {
	p := NewPresenter("en-US", "$")
	cards := p.Cards(nil)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}
