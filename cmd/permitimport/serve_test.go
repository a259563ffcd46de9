package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willozwi/AppCaccia/internal/config"
	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/testutil/memstore"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return &app{config: cfg}
}

func TestRouterServesEveryArea(t *testing.T) {
	store := memstore.New()
	store.AddSheet(domain.NewPermitSheet(2025, "2025100001"))
	handler := testApp(t).router(store, prometheus.NewRegistry(), func(context.Context) error { return nil })

	cases := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusNoContent},
		{http.MethodGet, "/stats/2025", http.StatusOK},
		{http.MethodPost, "/sheets/2025100001/deliver?actor=segreteria", http.StatusOK},
		{http.MethodGet, "/audit.csv", http.StatusOK},
		{http.MethodPost, "/imports", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, strings.NewReader("{}")))
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.target)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "permits_import_retries_total")
}

func TestRouterHealthCheckFailure(t *testing.T) {
	handler := testApp(t).router(memstore.New(), prometheus.NewRegistry(), func(context.Context) error {
		return errors.New("connection refused")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
