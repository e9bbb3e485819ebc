package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/paperledger/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
// Required and Available are set for insufficient cash or share rejections.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Required  string `json:"required,omitempty"`
	Available string `json:"available,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// errorKinds maps ledger error kinds to a status and a stable code.
var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{models.ErrValidation, http.StatusBadRequest, "validation"},
	{models.ErrInvalidPremium, http.StatusBadRequest, "invalid_premium"},
	{models.ErrNoPosition, http.StatusNotFound, "no_position"},
	{models.ErrNotFound, http.StatusNotFound, "not_found"},
	{models.ErrInsufficientCash, http.StatusUnprocessableEntity, "insufficient_cash"},
	{models.ErrInsufficientShares, http.StatusUnprocessableEntity, "insufficient_shares"},
	{models.ErrPriceUnavailable, http.StatusBadGateway, "price_unavailable"},
	{models.ErrPersistence, http.StatusInternalServerError, "persistence"},
}

// WriteServiceError maps a ledger error to its HTTP status. Unknown errors
// become an opaque 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.kind) {
			continue
		}
		resp := ErrorResponse{Error: err.Error(), Code: k.code}
		var te *models.TradeError
		if errors.As(err, &te) {
			resp.Symbol = te.Symbol
			resp.Required = te.Required
			resp.Available = te.Available
		}
		WriteJSON(w, k.status, resp)
		return
	}
	WriteErrorWithCode(w, http.StatusInternalServerError, "Internal server error", "internal")
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// QueryInt reads a non-negative integer query parameter, returning def when absent.
// Returns false and writes a 400 error when the value is malformed.
func QueryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		WriteError(w, http.StatusBadRequest, "Invalid "+name+": must be a non-negative integer")
		return 0, false
	}
	return n, true
}
