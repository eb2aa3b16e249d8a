package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/service"
	"github.com/msto63/bexpr/pkg/core/logging"
	"github.com/msto63/bexpr/pkg/core/version"
)

// Handler serves the REST API
type Handler struct {
	service *service.Service
	maxSize int64
	logger  *logging.Logger
	mux     *http.ServeMux
}

// InputRequest is the body of evaluate and tokenize requests
type InputRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewHandler creates the REST handler
func NewHandler(svc *service.Service, maxBodySize int64) *Handler {
	h := &Handler{
		service: svc,
		maxSize: maxBodySize,
		logger:  logging.New("gateway-api"),
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /api/v1/evaluate", h.handleEvaluate)
	h.mux.HandleFunc("POST /api/v1/tokenize", h.handleTokenize)
	h.mux.HandleFunc("GET /api/v1/history", h.handleHistory)
	h.mux.HandleFunc("GET /api/v1/status", h.handleStatus)
	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Evaluate(r.Context(), &service.EvaluateRequest{
		Input:     req.Input,
		SessionID: req.SessionID,
		Source:    history.SourceGateway,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Tokenize(r.Context(), req.Input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &service.HistoryRequest{
		SessionID:  query.Get("session"),
		OnlyErrors: query.Get("errors") == "true",
		Kind:       query.Get("kind"),
	}

	var err error
	if req.Limit, err = intParam(query.Get("limit")); err != nil {
		h.writeError(w, mdwerror.Wrap(err, "invalid limit").WithCode(mdwerror.CodeInvalidInput))
		return
	}
	if req.Offset, err = intParam(query.Get("offset")); err != nil {
		h.writeError(w, mdwerror.Wrap(err, "invalid offset").WithCode(mdwerror.CodeInvalidInput))
		return
	}

	resp, err := h.service.History(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Stats()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":    "gateway",
		"version":    version.Gateway,
		"requests":   stats.Requests,
		"statements": stats.Statements,
		"uptime":     stats.Uptime.String(),
		"history":    h.service.HistoryEnabled(),
	})
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := r.Body
	if h.maxSize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxSize)
	}

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "request body too large",
				Code:  mdwerror.CodeInvalidInput.String(),
			})
			return false
		}
		h.writeError(w, mdwerror.Wrap(err, "invalid request body").WithCode(mdwerror.CodeInvalidInput))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := mdwerror.GetCode(err)
	resp := ErrorResponse{Error: err.Error(), Code: code.String()}

	var mdwErr *mdwerror.Error
	if errors.As(err, &mdwErr) {
		if details := mdwErr.Details(); len(details) > 0 {
			resp.Details = details
		}
	}

	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "code", code)
	}
	h.writeJSON(w, status, resp)
}

func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
