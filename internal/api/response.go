// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

// Package api provides the HTTP surface: Chi routing, middleware, and
// handlers over the catalog, session store, and recommendation engine.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/playwise/playwise/internal/logging"
	"github.com/playwise/playwise/internal/validation"
)

// APIResponse is the envelope for every JSON response.
//
// Success:
//
//	{"status": "ok", "data": {...}, "metadata": {"timestamp": "..."}}
//
// Error:
//
//	{"status": "error", "error": {"code": "NOT_FOUND", "message": "..."}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response observability fields.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	ElapsedMS int64     `json:"elapsed_ms,omitempty"`
}

// APIError is a structured error payload with a machine-readable code.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes shared across handlers.
const (
	codeValidation = "VALIDATION_ERROR"
	codeBadRequest = "BAD_REQUEST"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL_ERROR"

	statusOK         = "ok"
	statusErrorValue = "error"
)

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData sends a success envelope around data.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &APIResponse{
		Status:   statusOK,
		Data:     data,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError sends an error envelope. err, when non-nil, is logged
// but never leaked to the client.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("API error")
	}

	respondJSON(w, status, &APIResponse{
		Status:   statusErrorValue,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationError sends a 400 envelope for a failed request
// validation.
func respondValidationError(w http.ResponseWriter, apiErr *APIError) {
	respondJSON(w, http.StatusBadRequest, &APIResponse{
		Status:   statusErrorValue,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
		Error:    apiErr,
	})
}

// validateRequest validates a request struct, returning a populated
// APIError on failure and nil when the struct passes.
func validateRequest(v interface{}) *APIError {
	reqErr := validation.ValidateStruct(v)
	if reqErr == nil {
		return nil
	}

	details := make(map[string]interface{}, len(reqErr.Fields))
	for _, f := range reqErr.Fields {
		details[f.Field] = f.Message
	}
	return &APIError{
		Code:    codeValidation,
		Message: reqErr.Error(),
		Details: details,
	}
}

// getIntParam extracts an integer query parameter with a default.
func getIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return v, nil
}
