// Package replay plays a parsed recording back at its original pace, or
// faster or slower by a speed multiplier.
//
// # Batching
//
// Real captures contain long runs of keystroke echoes only a millisecond or
// two apart. A [Session] folds consecutive entries whose speed-scaled delay is
// under [BatchThreshold] into a single timer wait and a single output event.
// Total elapsed schedule time and total bytes delivered are unchanged.
//
// # Scheduling
//
// Sessions never block. Each batch arms one single-shot timer on a [Clock];
// the timer callback emits the batch's bytes and arms the next timer. Tests
// drive playback with a [ManualClock] instead of sleeping.
//
// # Ownership
//
// A [Session] holds no reference to the network. It emits [Event] values to
// a [Sink]; the WebSocket handler owns a [Player] per connection and drains a
// [ChannelSink]. Stopping a session from any goroutine guarantees no further
// events from it.
//
// # Log Prefixes
//
// Sessions log at the [replay] prefix.
package replay
