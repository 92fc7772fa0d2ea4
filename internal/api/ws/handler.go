package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apihttp "github.com/junedali-patel/codemind1/backend/internal/api/http"
	"github.com/junedali-patel/codemind1/backend/internal/api/stream"
	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/tracing"
	"github.com/junedali-patel/codemind1/backend/internal/shared/utils"
)

const (
	writeTimeout = 10 * time.Second
	// Room for the JSON envelope around a maximal input payload
	readLimit = utils.MaxInputSize*2 + 1024
)

// Client frame types
const (
	FrameInput  = "input"
	FrameResize = "resize"
	FramePing   = "ping"
)

// ClientFrame is a message sent by the browser
type ClientFrame struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}

// Handler manages terminal WebSocket connections
type Handler struct {
	terminals *terminal.Manager
	streams   *stream.Endpoint
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// NewHandler creates a new WebSocket handler. An empty origin list, or one
// containing "*", accepts every origin.
func NewHandler(terminals *terminal.Manager, streams *stream.Endpoint, origins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		terminals: terminals,
		streams:   streams,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(origins),
		},
		logger: logger,
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = true
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// HandleConnection upgrades the request and streams the terminal
func (h *Handler) HandleConnection(c *gin.Context) {
	sub, err := h.streams.Open(c.Param("id"), "websocket")
	if err != nil {
		apihttp.RespondError(c, err)
		return
	}

	// The upgrade response bypasses gin's header map, so trace ids are
	// copied onto it explicitly
	trace := map[string]string{}
	tracing.InjectTraceContext(c.Request.Context(), trace)
	header := http.Header{}
	for key, value := range trace {
		header.Set(key, value)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		sub.Close()
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(readLimit)

	emitter := &connEmitter{conn: conn}

	// Hijacked connections are not watched by net/http, so the read loop
	// owns disconnect detection
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go func() {
		defer cancel()
		h.readLoop(sub.Session.ID, conn, emitter)
	}()

	if err := sub.Run(ctx, emitter); err != nil && !errors.Is(err, stream.ErrOverflow) {
		h.logger.Debug("WebSocket stream ended with error",
			zap.String("terminal_id", sub.Session.ID),
			zap.Error(err),
		)
	}

	_ = emitter.close(websocket.CloseNormalClosure, "stream ended")
}

func (h *Handler) readLoop(terminalID string, conn *websocket.Conn, emitter *connEmitter) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var frame ClientFrame
		if err := sonic.Unmarshal(data, &frame); err != nil {
			h.sendError(emitter, apihttp.CategoryValidation, "malformed frame: "+err.Error())
			continue
		}

		switch frame.Type {
		case FrameInput:
			if err := h.terminals.WriteInput(terminalID, frame.Data); err != nil {
				h.sendDomainError(emitter, err)
			}
		case FrameResize:
			if err := h.terminals.Resize(terminalID, frame.Cols, frame.Rows); err != nil {
				h.sendDomainError(emitter, err)
			}
		case FramePing:
			_ = emitter.Emit(stream.Frame{Event: "pong", Data: gin.H{"timestamp": time.Now().Unix()}})
		default:
			h.sendError(emitter, apihttp.CategoryValidation, "unknown frame type: "+frame.Type)
		}
	}
}

func (h *Handler) sendDomainError(emitter *connEmitter, err error) {
	_, category := apihttp.Classify(err)
	h.sendError(emitter, category, err.Error())
}

func (h *Handler) sendError(emitter *connEmitter, category, details string) {
	_ = emitter.Emit(stream.Frame{
		Event: "error",
		Data:  apihttp.ErrorResponse{Error: category, Details: details},
	})
}

// connEmitter serializes writes from the stream and the read loop
type connEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (e *connEmitter) Emit(frame stream.Frame) error {
	data, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return e.conn.WriteMessage(websocket.TextMessage, data)
}

func (e *connEmitter) close(code int, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeTimeout),
	)
}
