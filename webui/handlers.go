// Package webui provides the HTTP surface for ReplyDesk.
// This file contains the JSON API handlers and the error translation from
// responder failures to HTTP responses.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"replydesk/llm"
	"replydesk/responder"
	"replydesk/shutdown"
	"replydesk/threadimport"
)

// apiKeyHeader lets callers supply a per-request credential without it
// appearing in URLs or logs.
const apiKeyHeader = "X-API-Key"

type generateRequest struct {
	Thread     string `json:"thread"`
	Suggestion string `json:"suggestion,omitempty"`
	Tone       string `json:"tone,omitempty"`
	Model      string `json:"model,omitempty"`
}

type generateResponse struct {
	Response      string `json:"response"`
	Degraded      bool   `json:"degraded,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

type adjustRequest struct {
	Response  string `json:"response"`
	Direction string `json:"direction"`
	Model     string `json:"model,omitempty"`
}

type adjustResponse struct {
	Response      string `json:"response"`
	CorrelationID string `json:"correlation_id"`
}

type analyzeRequest struct {
	Thread string `json:"thread"`
	Model  string `json:"model,omitempty"`
}

type analyzeResponse struct {
	Analysis      string `json:"analysis"`
	Cached        bool   `json:"cached,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

type importResponse struct {
	Thread          string `json:"thread"`
	TotalPages      int    `json:"total_pages"`
	ExtractedPages  int    `json:"extracted_pages"`
	EstimatedTokens int    `json:"estimated_tokens"`
	Truncated       bool   `json:"truncated,omitempty"`
}

type errorBody struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RetryAfterMS int64  `json:"retry_after_ms,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleTones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"tones": s.catalog.Names()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req generateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var result responder.Result
	err := s.wrap(r, "generate", func() error {
		var opErr error
		result, opErr = s.responder.Generate(r.Context(), responder.GenerateRequest{
			Thread:     req.Thread,
			Suggestion: req.Suggestion,
			Tone:       req.Tone,
			Model:      req.Model,
			APIKey:     r.Header.Get(apiKeyHeader),
		})
		return opErr
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, generateResponse{
		Response:      result.Text,
		Degraded:      result.Degraded,
		CorrelationID: result.CorrelationID,
	})
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req adjustRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	direction, err := responder.ParseDirection(req.Direction)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var result responder.Result
	err = s.wrap(r, "adjust-length", func() error {
		var opErr error
		result, opErr = s.responder.AdjustLength(r.Context(), responder.AdjustRequest{
			Response:  req.Response,
			Direction: direction,
			Model:     req.Model,
			APIKey:    r.Header.Get(apiKeyHeader),
		})
		return opErr
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, adjustResponse{
		Response:      result.Text,
		CorrelationID: result.CorrelationID,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req analyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var result responder.Result
	err := s.wrap(r, "analyze-sentiment", func() error {
		var opErr error
		result, opErr = s.responder.AnalyzeSentiment(r.Context(), responder.AnalyzeRequest{
			Thread: req.Thread,
			Model:  req.Model,
			APIKey: r.Header.Get(apiKeyHeader),
		})
		return opErr
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, analyzeResponse{
		Analysis:      result.Text,
		Cached:        result.Cached,
		CorrelationID: result.CorrelationID,
	})
}

// handleImportThread accepts a multipart upload under the "file" field and
// returns the extracted thread text.
func (s *Server) handleImportThread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, llm.NewError(llm.KindInvalidInput, 400, "missing or oversized file upload", err))
		return
	}
	defer file.Close()

	var result *threadimport.ImportResult
	err = s.wrap(r, "import-thread", func() error {
		var opErr error
		result, opErr = s.importer.FromReader(file)
		return opErr
	})
	if err != nil {
		if errors.Is(err, threadimport.ErrNoContent) || errors.Is(err, threadimport.ErrEmptyInput) {
			s.writeError(w, llm.NewError(llm.KindInvalidInput, 400, err.Error(), err))
			return
		}
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, importResponse{
		Thread:          result.Thread,
		TotalPages:      result.TotalPages,
		ExtractedPages:  result.ExtractedPages,
		EstimatedTokens: result.EstimatedTokens,
		Truncated:       result.Truncated,
	})
}

// wrap runs fn under the shutdown manager's in-flight tracking when a
// manager is configured.
func (s *Server) wrap(r *http.Request, name string, fn func() error) error {
	if s.manager == nil {
		return fn()
	}
	return s.manager.WrapRequest(r.Context(), name, func(ctx context.Context) error {
		return fn()
	})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes))
	if err := dec.Decode(v); err != nil {
		s.writeError(w, llm.NewError(llm.KindInvalidInput, 400, "invalid JSON body", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: errorBody{
		Code:    "METHOD_NOT_ALLOWED",
		Message: fmt.Sprintf("method not allowed, use %s", allowed),
	}})
}

// writeError translates an operation failure into the uniform JSON error
// shape. Rate limit errors carry a Retry-After header and the wait in the
// body so the UI can count down.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, shutdown.ErrTrackerClosed) {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: errorBody{
			Code:    "SHUTTING_DOWN",
			Message: "server is shutting down",
		}})
		return
	}

	apiErr := llm.AsAPIError(err, llm.KindGeneration)
	status := apiErr.StatusCode
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	body := errorBody{
		Code:    string(apiErr.Kind),
		Message: apiErr.Message,
	}
	if apiErr.Kind == llm.KindRateLimit && apiErr.RetryAfter > 0 {
		body.RetryAfterMS = apiErr.RetryAfter.Milliseconds()
		w.Header().Set("Retry-After", strconv.Itoa(int(apiErr.RetryAfter.Round(time.Second)/time.Second)))
	}
	s.writeJSON(w, status, errorResponse{Error: body})
}
