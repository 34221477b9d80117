package deals

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StatusCategory groups open-ended status strings for display
type StatusCategory string

const (
	CategoryPositive StatusCategory = "positive"
	CategoryCaution  StatusCategory = "caution"
	CategoryNeutral  StatusCategory = "neutral"
	CategoryClosed   StatusCategory = "closed"
)

var categoryColors = map[StatusCategory]string{
	CategoryPositive: "#28a745",
	CategoryCaution:  "#ffc107",
	CategoryClosed:   "#dc3545",
	CategoryNeutral:  "#6c757d",
}

// CategorizeStatus maps any status string to a category. Unknown statuses are neutral.
func CategorizeStatus(status string) StatusCategory {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "open":
		return CategoryPositive
	case "due diligence":
		return CategoryCaution
	case "closed", "cancelled", "canceled", "withdrawn":
		return CategoryClosed
	default:
		return CategoryNeutral
	}
}

// Color returns the badge colour of the category
func (c StatusCategory) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryNeutral]
}

// ProgressPercent returns raised/target as a percentage clamped to [0, 100].
// anomaly is true when the target is zero and no percentage can be computed.
func ProgressPercent(d Deal) (pct float64, anomaly bool) {
	if d.TargetAmount <= 0 {
		return 0, true
	}
	pct = d.RaisedAmount / d.TargetAmount * 100
	if math.IsNaN(pct) {
		return 0, true
	}
	return math.Max(0, math.Min(100, pct)), false
}

// Card is the display model of one deal
type Card struct {
	Deal

	Target         string `json:"target"`
	Raised         string `json:"raised"`
	MinInvestment  string `json:"min_investment_display"`
	DueDateDisplay string `json:"due_date_display"`

	Progress        float64 `json:"progress"`
	ProgressLabel   string  `json:"progress_label"`
	ShowProgress    bool    `json:"show_progress"`
	ProgressAnomaly bool    `json:"progress_anomaly"`
	Oversubscribed  bool    `json:"oversubscribed"`

	StatusCategory StatusCategory `json:"status_category"`
	StatusColor    string         `json:"status_color"`
	StatusClass    string         `json:"status_class"`

	HasDocuments       bool `json:"has_documents"`
	CanExpressInterest bool `json:"can_express_interest"`
}

// Presenter turns deals into cards using a fixed locale and currency symbol
type Presenter struct {
	printer *message.Printer
	symbol  string
}

// NewPresenter creates a presenter. An unknown locale falls back to English.
func NewPresenter(locale, currencySymbol string) *Presenter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Presenter{
		printer: message.NewPrinter(tag),
		symbol:  currencySymbol,
	}
}

// FormatCurrency renders an amount rounded to whole units with grouping, e.g. $1,250,000
func (p *Presenter) FormatCurrency(amount float64) string {
	rounded := math.Round(amount)
	if rounded == 0 {
		rounded = 0 // normalise -0
	}
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	if rounded >= maxAmount {
		return sign + p.symbol + p.printer.Sprintf("%.0f", rounded)
	}
	return sign + p.symbol + p.printer.Sprintf("%d", int64(rounded))
}

// FormatDueDate renders the due date as "January 02, 2006", or the raw cell text
func FormatDueDate(d Deal) string {
	if d.DueDate != nil {
		return d.DueDate.Format("January 02, 2006")
	}
	return d.DueDateRaw
}

// Card builds the display model of d
func (p *Presenter) Card(d Deal) Card {
	pct, anomaly := ProgressPercent(d)
	category := CategorizeStatus(d.Status)
	show := category != CategoryClosed

	c := Card{
		Deal:               d,
		Target:             p.FormatCurrency(d.TargetAmount),
		Raised:             p.FormatCurrency(d.RaisedAmount),
		MinInvestment:      p.FormatCurrency(d.MinInvestment),
		DueDateDisplay:     FormatDueDate(d),
		Progress:           pct,
		ShowProgress:       show,
		ProgressAnomaly:    anomaly,
		Oversubscribed:     d.TargetAmount > 0 && d.RaisedAmount > d.TargetAmount,
		StatusCategory:     category,
		StatusColor:        category.Color(),
		StatusClass:        "status-" + slug(d.Status),
		HasDocuments:       hasDocuments(d.DocumentsLink),
		CanExpressInterest: category == CategoryPositive,
	}
	if show {
		c.ProgressLabel = p.printer.Sprintf("%.1f%%", pct)
	}
	return c
}

// Cards maps every deal to a card, preserving order. The result is never nil.
func (p *Presenter) Cards(deals []Deal) []Card {
	out := make([]Card, 0, len(deals))
	for _, d := range deals {
		out = append(out, p.Card(d))
	}
	return out
}

func hasDocuments(link string) bool {
	link = strings.TrimSpace(link)
	return link != "" && link != "#"
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "unknown"
	}
	return out
}

