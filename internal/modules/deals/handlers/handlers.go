// Package handlers provides HTTP handlers for deal operations.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/modules/deals"
)

// DealService is the part of the deal repository the handlers use
type DealService interface {
	FetchDeals(ctx context.Context) (*deals.Batch, error)
	Refresh(ctx context.Context) (*deals.Batch, error)
}

// Handler handles deal HTTP requests
type Handler struct {
	service   DealService
	presenter *deals.Presenter
	log       zerolog.Logger
}

// NewHandler creates a new deal handler
func NewHandler(
	service DealService,
	presenter *deals.Presenter,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:   service,
		presenter: presenter,
		log:       log.With().Str("handler", "deals").Logger(),
	}
}

// ParseCriteria reads filter criteria from query parameters
func ParseCriteria(q url.Values) (deals.Criteria, error) {
	c := deals.Criteria{
		Search:   q.Get("search"),
		Industry: q.Get("industry"),
		Status:   q.Get("status"),
	}

	parseBound := func(name string) (*float64, error) {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", name, raw)
		}
		return &v, nil
	}

	var err error
	if c.MinTarget, err = parseBound("min_target"); err != nil {
		return c, err
	}
	if c.MaxTarget, err = parseBound("max_target"); err != nil {
		return c, err
	}
	return c, nil
}

// HandleListDeals handles GET /api/deals
func (h *Handler) HandleListDeals(w http.ResponseWriter, r *http.Request) {
	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}

	batch, ok := h.fetch(w, r)
	if !ok {
		return
	}

	filtered := deals.Filter(batch.Deals, criteria)
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"deals":   h.presenter.Cards(filtered),
			"count":   len(filtered),
			"total":   len(batch.Deals),
			"summary": deals.Summarize(filtered),
		},
		"metadata": batchMetadata(batch),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetDeal handles GET /api/deals/{id}
func (h *Handler) HandleGetDeal(w http.ResponseWriter, r *http.Request, id string) {
	batch, ok := h.fetch(w, r)
	if !ok {
		return
	}

	deal, found := batch.Find(id)
	if !found {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": fmt.Sprintf("deal %q not found", id),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     h.presenter.Card(deal),
		"metadata": batchMetadata(batch),
	})
}

// HandleGetFilters handles GET /api/deals/filters
func (h *Handler) HandleGetFilters(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.fetch(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     deals.FilterOptions(batch.Deals),
		"metadata": batchMetadata(batch),
	})
}

// HandleGetMetrics handles GET /api/deals/metrics
func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.fetch(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     deals.Summarize(batch.Deals),
		"metadata": batchMetadata(batch),
	})
}

// HandleGetWarnings handles GET /api/deals/warnings
func (h *Handler) HandleGetWarnings(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.fetch(w, r)
	if !ok {
		return
	}

	warnings := batch.Warnings
	if warnings == nil {
		warnings = []deals.RowWarning{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"warnings": warnings,
			"count":    len(warnings),
			"skipped":  batch.SkippedRows(),
		},
		"metadata": batchMetadata(batch),
	})
}

// HandleRefresh handles POST /api/deals/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.Refresh(r.Context())
	if err != nil {
		h.writeUnavailable(w, err)
		return
	}

	status := http.StatusOK
	message := "Deals refreshed"
	if batch.Stale {
		// The source failed but stale data is still being served
		status = http.StatusBadGateway
		message = "Refresh failed, serving cached deals"
	}

	h.writeJSON(w, status, map[string]interface{}{
		"message":  message,
		"data":     map[string]interface{}{"count": len(batch.Deals)},
		"metadata": batchMetadata(batch),
	})
}

// fetch loads the current batch, writing a 503 response when none is available
func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*deals.Batch, bool) {
	batch, err := h.service.FetchDeals(r.Context())
	if err != nil {
		h.writeUnavailable(w, err)
		return nil, false
	}
	return batch, true
}

func (h *Handler) writeUnavailable(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, deals.ErrSourceUnavailable) {
		status = http.StatusServiceUnavailable
	}
	h.log.Error().Err(err).Msg("Failed to load deals")

	h.writeJSON(w, status, map[string]interface{}{
		"error": "Deals are temporarily unavailable",
		"data": map[string]interface{}{
			"deals": []deals.Card{},
			"count": 0,
		},
	})
}

func batchMetadata(b *deals.Batch) map[string]interface{} {
	meta := map[string]interface{}{
		"batch_id":   b.ID,
		"fetched_at": b.FetchedAt.Format(time.RFC3339),
		"stale":      b.Stale,
		"timestamp":  time.Now().Format(time.RFC3339),
	}
	if b.LastError != "" {
		meta["last_error"] = b.LastError
	}
	return meta
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
