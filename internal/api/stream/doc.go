/*
Package stream implements the terminal streaming protocol independent of
transport.

A connection is opened with Endpoint.Open, which attaches a QueueSink to the
session and fails early for unknown terminals. Subscription.Run then writes:

 1. a "ready" frame with session metadata,
 2. the replay window, one "message" frame per event,
 3. live "message" frames as the shell produces output,

with a "heartbeat" frame on a fixed interval. Run returns once the client
goes away or the session ends. A viewer that falls further behind than its
queue allows is disconnected and can reconnect for a fresh replay. The sink
is detached exactly once per connection.

SSEEmitter frames events for text/event-stream responses. The WebSocket
transport in package ws provides its own Emitter.
*/
package stream
