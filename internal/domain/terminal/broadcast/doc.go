// Package broadcast owns one terminal's ordered, bounded event log and fans
// every appended event out to the sinks attached to it.
//
// Append, Attach and Detach are serialized by a single mutex per
// broadcaster. Because Attach snapshots the replay window and registers the
// sink inside the same critical section that Append uses, an event is
// either part of a subscriber's replay or delivered to it live, never both
// and never neither.
//
// Sinks must not block in Write: the broadcaster calls Write while holding
// its lock, so a slow sink would stall every other viewer of the terminal.
// Write failures are swallowed; a failing sink stays attached until its
// owner detaches it.
package broadcast
