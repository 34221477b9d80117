package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/coinvest/internal/modules/deals"
)

func TestRegisterRoutes(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(&fakeService{batch: testBatch()}, deals.NewPresenter("en-US", "$"), logger)

	router := chi.NewRouter()

	// Should not panic
	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/deals"},
		{http.MethodGet, "/deals/filters"},
		{http.MethodGet, "/deals/metrics"},
		{http.MethodGet, "/deals/warnings"},
		{http.MethodGet, "/deals/1"},
		{http.MethodPost, "/deals/refresh"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}
