package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junedali-patel/codemind1/backend/internal/api/stream"
	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal"
	"github.com/junedali-patel/codemind1/backend/internal/domain/workspace"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/tracing"
	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
)

type serverFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func setupWSServer(t *testing.T, origins []string) (*httptest.Server, *terminal.Manager, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	registry := workspace.NewRegistry()
	_, err := registry.Register("ws-1", root)
	require.NoError(t, err)

	terminals := terminal.NewManager(terminal.Config{
		Enabled:      true,
		DefaultShell: "/bin/sh",
		KillGrace:    500 * time.Millisecond,
	}, registry, nil)
	streams := stream.NewEndpoint(terminals, stream.Config{Heartbeat: time.Hour}, nil, nil)

	router := gin.New()
	router.GET("/api/terminal/sessions/:id/ws", NewHandler(terminals, streams, origins, nil).HandleConnection)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		terminals.Shutdown()
		server.Close()
	})
	return server, terminals, root
}

func wsURL(server *httptest.Server, terminalID string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/api/terminal/sessions/" + terminalID + "/ws"
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame serverFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// readUntil reads frames until match accepts one
func readUntil(t *testing.T, conn *websocket.Conn, match func(serverFrame) bool) serverFrame {
	t.Helper()
	for i := 0; i < 100; i++ {
		frame := readFrame(t, conn)
		if match(frame) {
			return frame
		}
	}
	t.Fatal("expected frame never arrived")
	return serverFrame{}
}

func messageOf(t *testing.T, frame serverFrame) types.TerminalEvent {
	t.Helper()
	var event types.TerminalEvent
	require.NoError(t, json.Unmarshal(frame.Data, &event))
	return event
}

func TestHandleConnection_Protocol(t *testing.T) {
	server, terminals, root := setupWSServer(t, nil)

	session, err := terminals.Create("ws-1", "")
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, session.ID), nil)
	require.NoError(t, err)
	defer conn.Close()

	ready := readFrame(t, conn)
	assert.Equal(t, stream.EventReady, ready.Event)
	var meta stream.Ready
	require.NoError(t, json.Unmarshal(ready.Data, &meta))
	assert.Equal(t, session.ID, meta.TerminalID)
	assert.Equal(t, root, meta.Cwd)

	first := readFrame(t, conn)
	assert.Equal(t, stream.EventMessage, first.Event)
	event := messageOf(t, first)
	assert.Equal(t, types.EventSystem, event.Type)
	assert.Contains(t, event.Data, root)

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: FrameInput, Data: "echo socket\n"}))

	echo := readUntil(t, conn, func(f serverFrame) bool { return f.Event == stream.EventMessage })
	assert.Equal(t, types.EventStdin, messageOf(t, echo).Type)

	readUntil(t, conn, func(f serverFrame) bool {
		if f.Event != stream.EventMessage {
			return false
		}
		e := messageOf(t, f)
		return e.Type == types.EventStdout && strings.Contains(e.Data, "socket")
	})

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: FrameResize, Cols: 100, Rows: 30}))
	require.Eventually(t, func() bool {
		cols, rows := session.Size()
		return cols == 100 && rows == 30
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: FramePing}))
	readUntil(t, conn, func(f serverFrame) bool { return f.Event == "pong" })
}

func TestHandleConnection_TraceHeaders(t *testing.T) {
	_, terminals, _ := setupWSServer(t, nil)
	streams := stream.NewEndpoint(terminals, stream.Config{Heartbeat: time.Hour}, nil, nil)

	tracer := tracing.New("test", nil)
	t.Cleanup(tracer.Close)

	router := gin.New()
	router.Use(tracing.HTTPMiddleware(tracer))
	router.GET("/api/terminal/sessions/:id/ws", NewHandler(terminals, streams, nil, nil).HandleConnection)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	session, err := terminals.Create("ws-1", "")
	require.NoError(t, err)

	header := http.Header{}
	header.Set(tracing.HeaderTraceID, "trace-from-client")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, session.ID), header)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "trace-from-client", resp.Header.Get(tracing.HeaderTraceID))
	assert.NotEmpty(t, resp.Header.Get(tracing.HeaderSpanID))

	ready := readFrame(t, conn)
	require.Equal(t, stream.EventReady, ready.Event)
	var meta stream.Ready
	require.NoError(t, json.Unmarshal(ready.Data, &meta))
	assert.Equal(t, "trace-from-client", meta.TraceID)
}

func TestHandleConnection_RejectedFrames(t *testing.T) {
	server, terminals, _ := setupWSServer(t, nil)

	session, err := terminals.Create("ws-1", "")
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, session.ID), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: FrameResize, Cols: 0, Rows: 0}))
	frame := readUntil(t, conn, func(f serverFrame) bool { return f.Event == "error" })
	assert.Contains(t, string(frame.Data), "validation_error")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	frame = readUntil(t, conn, func(f serverFrame) bool { return f.Event == "error" })
	assert.Contains(t, string(frame.Data), "malformed frame")
}

func TestHandleConnection_UnknownTerminal(t *testing.T) {
	server, _, _ := setupWSServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "term_missing"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleConnection_StreamEndsOnClose(t *testing.T) {
	server, terminals, _ := setupWSServer(t, nil)

	session, err := terminals.Create("ws-1", "")
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, session.ID), nil)
	require.NoError(t, err)
	defer conn.Close()

	readFrame(t, conn) // ready
	require.Eventually(t, func() bool { return session.Summary().Subscribers == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, terminals.Close(session.ID))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			break
		}
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker(nil)(req))
}
