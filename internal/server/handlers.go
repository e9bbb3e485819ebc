package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bobmcallan/paperledger/internal/models"
	"github.com/bobmcallan/paperledger/internal/services/portfolio"
	"github.com/bobmcallan/paperledger/internal/services/report"
)

// historyTableRows caps the Markdown NAV table; JSON always carries every point.
const historyTableRows = 60

type stockTradeRequest struct {
	Symbol string  `json:"symbol"`
	Shares float64 `json:"shares"`
}

type optionTradeRequest struct {
	Contract string  `json:"contract"`
	Quantity float64 `json:"quantity"`
	Premium  float64 `json:"premium,omitempty"` // 0 discovers the premium
}

type stockTradeFunc func(ctx context.Context, ledgerID, symbol string, shares float64) (*models.TradeResult, error)

type optionTradeFunc func(ctx context.Context, ledgerID, contract string, quantity, premium float64) (*models.TradeResult, error)

// wantsMarkdown reports whether the caller asked for a rendered report.
func wantsMarkdown(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "markdown") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/markdown")
}

// WriteMarkdown writes a rendered Markdown report.
func WriteMarkdown(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write([]byte(body))
}

func (s *Server) currency() string {
	return s.app.Config.Ledger.Currency
}

func (s *Server) handleLedgerList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ids, err := s.app.PortfolioService.ListLedgers(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ledgers": ids,
		"default": s.app.Config.Ledger.DefaultID,
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	v, err := s.app.PortfolioService.GetValuation(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if wantsMarkdown(r) {
		WriteMarkdown(w, http.StatusOK, report.FormatValuation(v))
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

func (s *Server) handleStockTrade(w http.ResponseWriter, r *http.Request, id string, trade stockTradeFunc) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req stockTradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	result, err := trade(r.Context(), id, req.Symbol, req.Shares)
	s.writeTradeResult(w, r, result, err)
}

func (s *Server) handleOptionTrade(w http.ResponseWriter, r *http.Request, id string, trade optionTradeFunc) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req optionTradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	result, err := trade(r.Context(), id, req.Contract, req.Quantity, req.Premium)
	s.writeTradeResult(w, r, result, err)
}

func (s *Server) writeTradeResult(w http.ResponseWriter, r *http.Request, result *models.TradeResult, err error) {
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if wantsMarkdown(r) {
		WriteMarkdown(w, http.StatusOK, report.FormatTradeResult(result, s.currency()))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	h, err := s.app.PortfolioService.GetHistory(r.Context(), id, r.URL.Query().Get("period"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if wantsMarkdown(r) {
		WriteMarkdown(w, http.StatusOK, report.FormatHistory(h, s.currency(), historyTableRows))
		return
	}
	WriteJSON(w, http.StatusOK, h)
}

func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	h, err := s.app.PortfolioService.GetHistory(r.Context(), id, r.URL.Query().Get("period"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	png, err := portfolio.RenderNAVChart(h)
	if err != nil {
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), "insufficient_data")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	limit, ok := QueryInt(w, r, "limit", s.app.Config.Ledger.RecentTrades)
	if !ok {
		return
	}
	trades, err := s.app.PortfolioService.GetRecentTrades(r.Context(), id, limit)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if wantsMarkdown(r) {
		WriteMarkdown(w, http.StatusOK, report.FormatTrades(id, trades, s.currency()))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ledger_id": id,
		"trades":    trades,
	})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	snaps, err := s.app.PortfolioService.GetSnapshots(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if wantsMarkdown(r) {
		WriteMarkdown(w, http.StatusOK, report.FormatSnapshots(id, snaps, s.currency()))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ledger_id": id,
		"snapshots": snaps,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	p, err := s.app.PortfolioService.Reset(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	s.logger.Info().Str("ledger", p.LedgerID).Str("correlation_id", correlationID(r.Context())).Msg("Ledger reset via HTTP")
	if wantsMarkdown(r) {
		WriteMarkdown(w, http.StatusOK, report.FormatReset(p, s.currency()))
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
