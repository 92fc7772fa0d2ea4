package stream

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-contrib/sse"
)

// SSEEmitter writes frames as Server-Sent Events
type SSEEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEEmitter writes the event-stream headers and returns an emitter
func NewSSEEmitter(w http.ResponseWriter) *SSEEmitter {
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	e := &SSEEmitter{w: w}
	e.flusher, _ = w.(http.Flusher)
	e.flush()
	return e
}

// Emit encodes frame.Data as JSON in a named event
func (e *SSEEmitter) Emit(frame Frame) error {
	data, err := sonic.Marshal(frame.Data)
	if err != nil {
		return err
	}
	if err := sse.Encode(e.w, sse.Event{Event: frame.Event, Data: string(data)}); err != nil {
		return err
	}
	e.flush()
	return nil
}

func (e *SSEEmitter) flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}
