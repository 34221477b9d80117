package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aristath/coinvest/internal/modules/deals"
	dealshandlers "github.com/aristath/coinvest/internal/modules/deals/handlers"
	"github.com/aristath/coinvest/pkg/embedded"
)

// dashboardPage is the view model of the dashboard template
type dashboardPage struct {
	Criteria         deals.Criteria
	SelectedIndustry string
	SelectedStatus   string
	MinTarget        string
	MaxTarget        string
	Options          deals.Options
	Summary          deals.Summary
	Cards            []deals.Card
	TotalDeals       int
	Warnings         int
	Error            string
	Stale            bool
	LastError        string
	FetchedAt        string
	RefreshAction    template.URL
}

var dashboardFilterKeys = []string{"search", "industry", "status", "min_target", "max_target"}

// withFilters appends the dashboard filter parameters of q to path
func withFilters(path string, q url.Values) string {
	kept := url.Values{}
	for _, k := range dashboardFilterKeys {
		if v := q.Get(k); v != "" {
			kept.Set(k, v)
		}
	}
	if len(kept) == 0 {
		return path
	}
	return path + "?" + kept.Encode()
}

func parseDashboard(p *deals.Presenter) (*template.Template, error) {
	funcs := template.FuncMap{
		"currency": p.FormatCurrency,
	}
	return template.New("dashboard.html").Funcs(funcs).ParseFS(embedded.Files, "templates/dashboard.html")
}

// handleDashboard renders the dashboard: filters, summary, cards and the
// empty state. A missing data source shows an error banner instead of failing.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{
		SelectedIndustry: deals.AllOption,
		SelectedStatus:   deals.AllOption,
		Options:          deals.FilterOptions(nil),
		Cards:            []deals.Card{},
		RefreshAction:    template.URL(withFilters("/refresh", r.URL.Query())),
	}

	criteria, err := dealshandlers.ParseCriteria(r.URL.Query())
	if err != nil {
		// bounds that fail to parse are left unset
		page.Error = "Invalid filter: " + err.Error()
	}
	page.Criteria = criteria
	if criteria.Industry != "" {
		page.SelectedIndustry = criteria.Industry
	}
	if criteria.Status != "" {
		page.SelectedStatus = criteria.Status
	}
	if criteria.MinTarget != nil {
		page.MinTarget = strconv.FormatFloat(*criteria.MinTarget, 'f', -1, 64)
	}
	if criteria.MaxTarget != nil {
		page.MaxTarget = strconv.FormatFloat(*criteria.MaxTarget, 'f', -1, 64)
	}

	batch, err := s.deals.FetchDeals(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load deals for dashboard")
		page.Error = "Deals could not be loaded from the spreadsheet. Please try again later."
		page.Summary = deals.Summarize(nil)
	} else {
		filtered := deals.Filter(batch.Deals, criteria)
		page.Options = deals.FilterOptions(batch.Deals)
		page.Summary = deals.Summarize(filtered)
		page.Cards = s.presenter.Cards(filtered)
		page.TotalDeals = len(batch.Deals)
		page.Warnings = len(batch.Warnings)
		page.Stale = batch.Stale
		page.LastError = batch.LastError
		page.FetchedAt = batch.FetchedAt.Local().Format("January 02, 2006 15:04")
	}

	var buf bytes.Buffer
	if err := s.dashboard.Execute(&buf, page); err != nil {
		s.log.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleDashboardRefresh handles the dashboard refresh button
func (s *Server) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if _, err := s.deals.Refresh(r.Context()); err != nil {
		s.log.Warn().Err(err).Msg("Manual refresh failed")
	} else {
		s.log.Info().Dur("duration", time.Since(start)).Msg("Manual refresh from dashboard")
	}
	http.Redirect(w, r, withFilters("/", r.URL.Query()), http.StatusSeeOther)
}
