package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/paperledger/internal/app"
	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/models"
)

// newStubEODHD serves a fixed real-time quote for AAPL.US and 404 for everything else.
func newStubEODHD(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/real-time/AAPL.US" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"code":"AAPL.US","timestamp":1773150000,"close":100,"previousClose":99}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newIntegrationServer(t *testing.T) *Server {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Storage.SnapshotBackend = "memory"
	cfg.Clients.EODHD.BaseURL = newStubEODHD(t).URL
	cfg.Clients.EODHD.APIKey = "test-key"

	a, err := app.NewAppWithConfig(cfg, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return NewServer(a)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestServer_TradeLifecycle(t *testing.T) {
	h := newIntegrationServer(t).Handler()

	rec := do(t, h, http.MethodPost, "/api/ledgers/paper/buy", `{"symbol":"aapl","shares":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.TradeResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "AAPL", result.Trade.Symbol)
	assert.Equal(t, "99000", result.Cash.String())

	rec = do(t, h, http.MethodGet, "/api/ledgers/paper/portfolio", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v models.PortfolioValuation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	require.Len(t, v.Positions, 1)
	assert.InDelta(t, 1000, v.PositionsValue, 1e-9)
	assert.InDelta(t, 10, v.DailyPL, 1e-9)

	rec = do(t, h, http.MethodPost, "/api/ledgers/paper/sell", `{"symbol":"AAPL","shares":11}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/ledgers/paper/buy", `{"symbol":"MSFT","shares":1}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code, "no quote for MSFT")

	rec = do(t, h, http.MethodGet, "/api/ledgers/paper/snapshots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snaps struct {
		Snapshots []models.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snaps))
	require.Len(t, snaps.Snapshots, 1, "only the accepted trade records a snapshot")
	assert.InDelta(t, 100000, snaps.Snapshots[0].Value, 1e-9)

	rec = do(t, h, http.MethodGet, "/api/ledgers/paper/history?period=1m", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/ledgers/paper/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/ledgers/paper/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"trades":[]`)
}

func TestServer_InvalidLedgerID(t *testing.T) {
	h := newIntegrationServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/api/ledgers/bad%20id/portfolio", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
