package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
)

func TestSSEEmitter(t *testing.T) {
	w := httptest.NewRecorder()
	emitter := NewSSEEmitter(w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	require.NoError(t, emitter.Emit(Frame{Event: EventReady, Data: Ready{TerminalID: "term_1", Cwd: "/tmp/proj", Shell: "/bin/bash"}}))
	require.NoError(t, emitter.Emit(Frame{Event: EventMessage, Data: types.TerminalEvent{Type: types.EventStdout, Data: "line one\nline two\n", Timestamp: "2024-01-01T00:00:00.000Z"}}))
	assert.True(t, w.Flushed)

	blocks := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	require.Len(t, blocks, 2)

	name, data := parseBlock(t, blocks[0])
	assert.Equal(t, EventReady, name)
	var ready Ready
	require.NoError(t, sonic.UnmarshalString(data, &ready))
	assert.Equal(t, "term_1", ready.TerminalID)
	assert.Equal(t, "/tmp/proj", ready.Cwd)

	name, data = parseBlock(t, blocks[1])
	assert.Equal(t, EventMessage, name)
	var event types.TerminalEvent
	require.NoError(t, sonic.UnmarshalString(data, &event))
	assert.Equal(t, types.EventStdout, event.Type)
	assert.Equal(t, "line one\nline two\n", event.Data)
}

func parseBlock(t *testing.T, block string) (event, data string) {
	t.Helper()
	for _, line := range strings.Split(block, "\n") {
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	require.NotEmpty(t, event)
	require.NotEmpty(t, data)
	return event, data
}
