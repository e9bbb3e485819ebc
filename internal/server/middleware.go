package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/paperledger/internal/common"
)

const (
	headerCorrelationID = "X-Correlation-ID"
	headerRequestID     = "X-Request-ID"
	ledgersPrefix       = "/api/ledgers/"
)

type requestKey struct{}

// requestInfo is attached to every request context by requestScope.
type requestInfo struct {
	correlationID string
	ledgerID      string
	action        string
}

// isTrade reports whether the request mutates a ledger.
func (ri requestInfo) isTrade(method string) bool {
	return method == http.MethodPost && ri.ledgerID != ""
}

func requestFrom(ctx context.Context) requestInfo {
	ri, _ := ctx.Value(requestKey{}).(requestInfo)
	return ri
}

// correlationID returns the id assigned to the request, or "".
func correlationID(ctx context.Context) string {
	return requestFrom(ctx).correlationID
}

// parseLedgerPath splits /api/ledgers/{id}/{action} into its parts. ok is
// false for paths outside the ledger tree; an empty id is the ledger list.
func parseLedgerPath(path string) (id, action string, ok bool) {
	if path == strings.TrimSuffix(ledgersPrefix, "/") {
		return "", "", true
	}
	rest, found := strings.CutPrefix(path, ledgersPrefix)
	if !found {
		return "", "", false
	}
	rest = strings.Trim(rest, "/")
	id, action, _ = strings.Cut(rest, "/")
	return id, action, true
}

// statusRecorder captures the status code and body size for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// requestScope assigns the correlation id and resolves the ledger addressed by
// the path. Caller-supplied X-Request-ID or X-Correlation-ID values are kept.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ri := requestInfo{correlationID: r.Header.Get(headerRequestID)}
		if ri.correlationID == "" {
			ri.correlationID = r.Header.Get(headerCorrelationID)
		}
		if ri.correlationID == "" {
			ri.correlationID = uuid.NewString()[:8]
		}
		if id, action, ok := parseLedgerPath(r.URL.Path); ok {
			ri.ledgerID, ri.action = id, action
		}

		w.Header().Set(headerCorrelationID, ri.correlationID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestKey{}, ri)))
	})
}

// recoverPanics turns a handler panic into an opaque 500.
func recoverPanics(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				ri := requestFrom(r.Context())
				logger.Error().
					Str("panic", fmt.Sprint(rec)).
					Str("path", r.URL.Path).
					Str("ledger", ri.ledgerID).
					Str("correlation_id", ri.correlationID).
					Msg("Panic recovered in HTTP handler")
				WriteErrorWithCode(w, http.StatusInternalServerError, "Internal server error", "internal")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// allowCrossOrigin lets browser dashboards on other origins call the API and
// read the correlation id.
func allowCrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Expose-Headers", headerCorrelationID)

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Accept", headerRequestID, headerCorrelationID}, ", "))
		h.Set("Access-Control-Max-Age", "600")
		w.WriteHeader(http.StatusNoContent)
	})
}

// accessLog writes one line per request. Trades and rejections are logged at
// info, server failures at error, reads at debug.
func accessLog(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)

			ri := requestFrom(r.Context())
			event := logger.Debug()
			switch {
			case sr.status >= 500:
				event = logger.Error()
			case sr.status >= 400 || ri.isTrade(r.Method):
				event = logger.Info()
			}
			if ri.ledgerID != "" {
				event = event.Str("ledger", ri.ledgerID).Str("action", ri.action)
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sr.status).
				Int("bytes", sr.bytes).
				Dur("duration", time.Since(start)).
				Str("correlation_id", ri.correlationID).
				Msg("HTTP request")
		})
	}
}

// applyMiddleware wraps a handler with the middleware stack. requestScope is
// outermost so a recovered panic is logged with its correlation id.
func applyMiddleware(handler http.Handler, logger *common.Logger) http.Handler {
	handler = accessLog(logger)(handler)
	handler = allowCrossOrigin(handler)
	handler = recoverPanics(logger)(handler)
	return requestScope(handler)
}
