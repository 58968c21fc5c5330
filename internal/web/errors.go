package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/retailkit/poscanon/internal/logging"
	"github.com/retailkit/poscanon/internal/pipeline"
)

// ErrorResponse is the JSON body for every API error. Schema failures carry
// the missing canonical fields and the columns that were seen, so a caller
// can fix the export without reading server logs.
type ErrorResponse struct {
	Error         string   `json:"error"`
	Code          string   `json:"code"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Columns       []string `json:"columns,omitempty"`
	LocationID    string   `json:"location_id,omitempty"`
}

// respondError logs the technical error and writes the mapped JSON response.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	logger(r).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
	)

	resp := ErrorResponse{Error: err.Error(), Code: "internal_error"}

	var schemaErr *pipeline.SchemaError
	var configErr *pipeline.ConfigError
	switch {
	case errors.As(err, &schemaErr):
		resp.Code = "schema_error"
		for _, f := range schemaErr.Missing {
			resp.MissingFields = append(resp.MissingFields, string(f))
		}
		resp.Columns = schemaErr.Columns
	case errors.As(err, &configErr):
		resp.Code = "config_error"
		resp.LocationID = configErr.LocationID
	case statusCode == http.StatusBadRequest:
		resp.Code = "bad_request"
	case statusCode == http.StatusRequestEntityTooLarge:
		resp.Code = "file_too_large"
	}

	respondJSON(w, statusCode, resp)
}

// respondJSON writes v as the response body with the given status.
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// logger returns the request-scoped logger.
func logger(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}
