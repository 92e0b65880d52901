package web

// errors.go maps errors to stable user-facing messages and writes them in
// the format the caller asked for.
//
// Error codes:
//
//	DB001-DB007    persistence (constraint violations, connectivity)
//	CSV001-CSV006  upload decoding
//	IMP001-IMP005  import scheduling and cancellation
//	REQ001-REQ002  malformed requests and unknown resources
//	TOUR001-TOUR002 tour API proxy
//	RATE001        request throttling
//	ERR000         anything else; the log line carries the real error

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/merchdesk/internal/importer"
	"github.com/JonMunkholm/merchdesk/internal/mastertour"
	"github.com/JonMunkholm/merchdesk/internal/sheet"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// UserMessage is what a client sees for an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

// ErrorResponse is the JSON body of an error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var (
	errNoFile        = errors.New("no file provided")
	errExtension     = errors.New("file extension not allowed")
	errEmptyUpload   = errors.New("empty file")
	errInvalidReq    = errors.New("invalid request")
	errRateLimited   = errors.New("rate limit exceeded")
	errUnknownImport = errors.New("unknown import kind")
)

var pgCodes = map[string]UserMessage{
	"23505": {"A record with this key already exists", "Check the file for duplicate rows", "DB001"},
	"23503": {"Referenced record does not exist", "Import the catalog before sales", "DB002"},
	"22P02": {"A value has the wrong format for its column", "Check ids and numbers in the file", "DB003"},
	"40P01": {"Database was busy with conflicting operations", "Please try again", "DB007"},
}

var sentinels = []struct {
	err error
	msg UserMessage
}{
	{importer.ErrTooManyImports, UserMessage{"Another import is running", "Please wait a moment and try again", "IMP001"}},
	{importer.ErrTourRequired, UserMessage{"Venue imports need a tour", "Pick the tour the report belongs to", "IMP002"}},
	{errUnknownImport, UserMessage{"Unknown import type", "Use catalog, sales, venue-sales, venue-totals or metadata", "IMP003"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "IMP004"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "IMP005"}},
	{sheet.ErrUnsupported, UserMessage{"File type is not supported", "Upload a CSV or XLSX file", "CSV001"}},
	{sheet.ErrTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "CSV002"}},
	{sheet.ErrNoSheet, UserMessage{"Worksheet not found in workbook", "Check the sheet name", "CSV003"}},
	{errNoFile, UserMessage{"No file was selected", "Attach the report as the \"file\" field", "CSV004"}},
	{errEmptyUpload, UserMessage{"The uploaded file is empty", "Upload a file with a header and data rows", "CSV005"}},
	{errExtension, UserMessage{"File extension is not allowed", "Upload a .csv, .txt or .xlsx file", "CSV006"}},
	{errInvalidReq, UserMessage{"The request is invalid", "Check the highlighted fields", "REQ001"}},
	{store.ErrNotFound, UserMessage{"Record not found", "Check the id or SKU", "REQ002"}},
	{mastertour.ErrNotConfigured, UserMessage{"Tour API is not configured", "Set MASTER_TOUR_API_URL", "TOUR001"}},
	{errRateLimited, UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var patterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
}

var unknownError = UserMessage{"An unexpected error occurred", "Please try again or contact support", "ERR000"}

// MapError converts err into a user message. Postgres error codes are
// checked first, then known sentinel errors, then message patterns.
func MapError(err error) UserMessage {
	if err == nil {
		return unknownError
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := pgCodes[pgErr.Code]; ok {
			return msg
		}
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	var apiErr *mastertour.APIError
	if errors.As(err, &apiErr) {
		return UserMessage{"Tour API request failed: " + apiErr.Message, "Please try again later", "TOUR002"}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}
	return unknownError
}

// statusFor picks the HTTP status for a mapped error.
func statusFor(msg UserMessage) int {
	switch msg.Code {
	case "IMP001", "RATE001":
		return http.StatusTooManyRequests
	case "IMP002", "IMP003", "CSV001", "CSV003", "CSV004", "CSV005", "CSV006", "REQ001":
		return http.StatusBadRequest
	case "CSV002":
		return http.StatusRequestEntityTooLarge
	case "REQ002":
		return http.StatusNotFound
	case "IMP005":
		return http.StatusGatewayTimeout
	case "TOUR001":
		return http.StatusServiceUnavailable
	case "TOUR002":
		return http.StatusBadGateway
	case "DB001", "DB002", "DB003":
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError logs err with the request id and writes the mapped message
// as an HTML fragment for HTMX callers and JSON otherwise.
func respondError(w http.ResponseWriter, r *http.Request, err error, fields map[string]string) {
	msg := MapError(err)
	status := statusFor(msg)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := errorAlert(msg).Render(r.Context(), w); err != nil {
			slog.Error("render error alert", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Fields:  fields,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
