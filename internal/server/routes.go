package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/paperledger/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Ledgers
	mux.HandleFunc("/api/ledgers/", s.routeLedgers)
	mux.HandleFunc("/api/ledgers", s.handleLedgerList)
}

// routeLedgers dispatches /api/ledgers/{id}/* to the appropriate handler.
func (s *Server) routeLedgers(w http.ResponseWriter, r *http.Request) {
	id, subpath, _ := parseLedgerPath(r.URL.Path)
	if id == "" {
		s.handleLedgerList(w, r)
		return
	}

	switch subpath {
	case "", "portfolio":
		s.handlePortfolio(w, r, id)
	case "buy":
		s.handleStockTrade(w, r, id, s.app.PortfolioService.Buy)
	case "sell":
		s.handleStockTrade(w, r, id, s.app.PortfolioService.Sell)
	case "options/buy":
		s.handleOptionTrade(w, r, id, s.app.PortfolioService.BuyOption)
	case "options/sell":
		s.handleOptionTrade(w, r, id, s.app.PortfolioService.SellOption)
	case "history":
		s.handleHistory(w, r, id)
	case "history/chart":
		s.handleHistoryChart(w, r, id)
	case "transactions":
		s.handleTransactions(w, r, id)
	case "snapshots":
		s.handleSnapshots(w, r, id)
	case "reset":
		s.handleReset(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found: "+r.URL.Path)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.CurrentVersion())
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
