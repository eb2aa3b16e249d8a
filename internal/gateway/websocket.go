package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/service"
	"github.com/msto63/bexpr/pkg/core/logging"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

// WSMessage represents a WebSocket request
type WSMessage struct {
	Type    string          `json:"type"`              // "eval", "tokenize", "history", "ping"
	ID      string          `json:"id,omitempty"`      // Echoed in the response
	Payload json.RawMessage `json:"payload,omitempty"` // Message-specific payload
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"` // "result", "tokens", "history", "error", "pong"
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// WSInputPayload carries the input of eval and tokenize messages
type WSInputPayload struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WebSocketHandler evaluates statements sent over WebSocket connections
type WebSocketHandler struct {
	service  *service.Service
	upgrader websocket.Upgrader
	maxSize  int64
	logger   *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. An empty origin list
// allows every origin.
func NewWebSocketHandler(svc *service.Service, maxMessageSize int64, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		service: svc,
		maxSize: maxMessageSize,
		logger:  logging.New("gateway-websocket"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.handleConnection(r.Context(), conn)
}

// handleConnection serves one connection. Messages are answered in order;
// each connection has its own history session unless a message names one.
func (h *WebSocketHandler) handleConnection(parent context.Context, conn *websocket.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sessionID := history.NewSessionID()
	h.logger.Info("WebSocket connection established",
		"remote", conn.RemoteAddr().String(),
		"session", sessionID,
	)

	if h.maxSize > 0 {
		conn.SetReadLimit(h.maxSize)
	}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepalive(conn, done)

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed", "session", sessionID)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		h.sendResponse(conn, h.dispatch(ctx, sessionID, msg))
	}
}

// dispatch handles one message and builds its response
func (h *WebSocketHandler) dispatch(ctx context.Context, sessionID string, msg WSMessage) WSResponse {
	switch msg.Type {
	case "ping":
		return WSResponse{Type: "pong", ID: msg.ID}

	case "eval":
		var payload WSInputPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errorResponse(msg.ID, "invalid_payload", "Invalid eval payload")
		}
		if payload.SessionID == "" {
			payload.SessionID = sessionID
		}
		resp, err := h.service.Evaluate(ctx, &service.EvaluateRequest{
			Input:     payload.Input,
			SessionID: payload.SessionID,
			Source:    history.SourceGateway,
		})
		if err != nil {
			return serviceError(msg.ID, err)
		}
		return WSResponse{Type: "result", ID: msg.ID, Payload: resp}

	case "tokenize":
		var payload WSInputPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errorResponse(msg.ID, "invalid_payload", "Invalid tokenize payload")
		}
		resp, err := h.service.Tokenize(ctx, payload.Input)
		if err != nil {
			return serviceError(msg.ID, err)
		}
		return WSResponse{Type: "tokens", ID: msg.ID, Payload: resp}

	case "history":
		var req service.HistoryRequest
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				return errorResponse(msg.ID, "invalid_payload", "Invalid history payload")
			}
		}
		resp, err := h.service.History(ctx, &req)
		if err != nil {
			return serviceError(msg.ID, err)
		}
		return WSResponse{Type: "history", ID: msg.ID, Payload: resp}

	default:
		return errorResponse(msg.ID, "unknown_type", "Unknown message type: "+msg.Type)
	}
}

// keepalive pings the peer until done is closed
func (h *WebSocketHandler) keepalive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// sendResponse sends a response message via WebSocket
func (h *WebSocketHandler) sendResponse(conn *websocket.Conn, resp WSResponse) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

func errorResponse(id, code, message string) WSResponse {
	return WSResponse{
		Type: "error",
		ID:   id,
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func serviceError(id string, err error) WSResponse {
	code := mdwerror.GetCode(err)
	payload := WSErrorPayload{
		Code:    code.String(),
		Message: err.Error(),
	}

	var mdwErr *mdwerror.Error
	if errors.As(err, &mdwErr) {
		payload.Message = mdwErr.Message()
		if details := mdwErr.Details(); len(details) > 0 {
			payload.Details = details
		}
	}
	return WSResponse{Type: "error", ID: id, Payload: payload}
}
