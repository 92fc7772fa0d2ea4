// Package ws provides the WebSocket transport for terminal streams.
//
// A connection speaks the same protocol as the Server-Sent Events stream
// (ready, replayed messages, live messages, heartbeats) and additionally
// accepts keystrokes and resizes from the client, so a browser terminal
// needs a single socket.
//
// Message Types (Client → Server):
//   - input: {"type":"input","data":"ls\n"}
//   - resize: {"type":"resize","cols":120,"rows":40}
//   - ping: Keep-alive ping
//
// Message Types (Server → Client), each {"event": name, "data": payload}:
//   - ready: Session metadata, sent first
//   - message: One terminal event
//   - heartbeat: Keep-alive
//   - pong: Reply to ping
//   - error: A client frame was rejected
//
// Example Usage:
//
//	handler := ws.NewHandler(terminals, streams, origins, logger)
//	router.GET("/api/terminal/sessions/:id/ws", handler.HandleConnection)
package ws
