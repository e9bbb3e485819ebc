package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/paperledger/internal/common"
)

func TestParseLedgerPath(t *testing.T) {
	tests := []struct {
		path       string
		id, action string
		ok         bool
	}{
		{"/api/ledgers", "", "", true},
		{"/api/ledgers/", "", "", true},
		{"/api/ledgers/paper", "paper", "", true},
		{"/api/ledgers/paper/", "paper", "", true},
		{"/api/ledgers/paper/options/buy", "paper", "options/buy", true},
		{"/api/health", "", "", false},
	}
	for _, tt := range tests {
		id, action, ok := parseLedgerPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.id, id, tt.path)
		assert.Equal(t, tt.action, action, tt.path)
	}
}

func TestRequestScope_AttachesLedgerAndCorrelation(t *testing.T) {
	var seen requestInfo
	h := requestScope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/ledgers/predictions/sell", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Correlation-ID"))
	assert.Equal(t, requestInfo{correlationID: "req-123", ledgerID: "predictions", action: "sell"}, seen)
	assert.True(t, seen.isTrade(http.MethodPost))
	assert.False(t, seen.isTrade(http.MethodGet))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Len(t, rec.Header().Get("X-Correlation-ID"), 8)
	assert.Empty(t, seen.ledgerID)
}

func TestApplyMiddleware_PanicLoggedWithCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLoggerWithOutput("debug", &buf)
	h := applyMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logger)

	req := httptest.NewRequest(http.MethodPost, "/api/ledgers/paper/buy", nil)
	req.Header.Set("X-Correlation-ID", "corr-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal", body.Code)

	assert.Contains(t, buf.String(), "Panic recovered")
	assert.Contains(t, buf.String(), "corr-9")
	assert.Contains(t, buf.String(), `"ledger":"paper"`)
}

func TestAllowCrossOrigin(t *testing.T) {
	called := false
	h := allowCrossOrigin(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/ledgers/paper/buy", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called, "preflight stops before the handler")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ledgers/paper", nil))
	assert.True(t, called)
	assert.Equal(t, "X-Correlation-ID", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestAccessLog_Levels(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		target  string
		status  int
		level   string
		fields  []string
		omitted string
	}{
		{"trade at info", http.MethodPost, "/api/ledgers/paper/buy", http.StatusOK, `"level":"info"`, []string{`"action":"buy"`, `"ledger":"paper"`}, ""},
		{"rejection at info", http.MethodGet, "/api/ledgers/paper/history", http.StatusBadRequest, `"level":"info"`, nil, ""},
		{"failure at error", http.MethodGet, "/api/ledgers/paper", http.StatusInternalServerError, `"level":"error"`, nil, ""},
		{"read at debug", http.MethodGet, "/api/health", http.StatusOK, `"level":"debug"`, nil, `"ledger"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := common.NewLoggerWithOutput("debug", &buf)
			h := requestScope(accessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				WriteError(w, tt.status, "x")
			})))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.target, nil))

			line := buf.String()
			assert.Contains(t, line, tt.level)
			assert.Contains(t, line, `"bytes":`)
			for _, f := range tt.fields {
				assert.Contains(t, line, f)
			}
			if tt.omitted != "" {
				assert.NotContains(t, line, tt.omitted)
			}
		})
	}
}
