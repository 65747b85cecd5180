package replay

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/nyrahul/shellsight/internal/recording"
)

// BatchThreshold is the scaled delay below which consecutive timing entries
// are folded into one emission.
const BatchThreshold = 10 * time.Millisecond

var thresholdMs = float64(BatchThreshold) / float64(time.Millisecond)

// MinSpeed is the slowest playback rate a session accepts.
const MinSpeed = 0.01

// Phase is the lifecycle state of a Session.
type Phase string

const (
	// PhaseIdle means the session was created but not started.
	PhaseIdle Phase = "idle"
	// PhaseScheduled means a batch is waiting on its timer.
	PhaseScheduled Phase = "scheduled"
	// PhaseEmitting means a batch timer fired and its output is being emitted.
	PhaseEmitting Phase = "emitting"
	// PhaseFinished means every timing entry was played.
	PhaseFinished Phase = "finished"
	// PhaseStopped means playback was cancelled.
	PhaseStopped Phase = "stopped"
)

// NormalizeSpeed maps a requested speed onto a usable one: non-positive or
// non-finite speeds become 1, speeds below MinSpeed are raised to it, and
// speeds above max (when max > 0) are clamped.
func NormalizeSpeed(speed, max float64) float64 {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		speed = 1
	}
	if speed < MinSpeed {
		speed = MinSpeed
	}
	if max > 0 && speed > max {
		speed = max
	}
	return speed
}

// batch is a run of consecutive timing entries emitted together.
type batch struct {
	end   int     // index one past the last entry in the batch
	delay float64 // seconds, unscaled
	bytes int
}

// nextBatch folds entries starting at start. The first entry always joins.
// Later entries join while their own scaled delay is under the threshold, and
// accumulation stops once the batch's scaled delay reaches it.
func nextBatch(stream recording.TimingStream, start int, speed float64) batch {
	b := batch{end: start}
	for b.end < len(stream) {
		e := stream[b.end]
		if b.end > start && e.Delay*1000/speed >= thresholdMs {
			break
		}
		b.delay += e.Delay
		b.bytes += e.Bytes
		b.end++
		if b.delay*1000/speed >= thresholdMs {
			break
		}
	}
	return b
}

// Progress is a snapshot of a session's position.
type Progress struct {
	Phase        Phase   `json:"phase"`
	Cursor       int     `json:"cursor"`
	Entries      int     `json:"entries"`
	ReadOffset   int     `json:"read_offset"`
	BytesEmitted int     `json:"bytes_emitted"`
	Batches      int     `json:"batches"`
	ScheduledMs  float64 `json:"scheduled_ms"`
}

// Session replays one recording at a fixed speed. It consumes timing entries
// batch by batch, waits out each batch's scaled delay on its Clock and emits
// the corresponding slice of output to its Sink.
//
// Lifecycle:
//  1. NewSession → PhaseIdle
//  2. Start → PhaseScheduled; each timer tick moves through PhaseEmitting and
//     back to PhaseScheduled
//  3. Timing stream exhausted → end event, PhaseFinished
//  4. Stop at any point while running → PhaseStopped, no further events
//
// Finished and stopped sessions cannot be restarted.
type Session struct {
	ID string

	timing recording.TimingStream
	blob   recording.OutputBlob
	speed  float64
	clock  Clock
	sink   Sink

	mu           sync.Mutex
	phase        Phase
	cursor       int
	readOffset   int
	pending      Timer
	gen          uint64 // bumped by Stop so stale timer callbacks bail out
	bytesEmitted int
	batches      int
	scheduledMs  float64
}

// Options configures a Session.
type Options struct {
	// ID labels the session in events and logs.
	ID string
	// Speed multiplies playback rate. Values <= 0 are treated as 1.
	Speed float64
	// Clock schedules batches. Defaults to RealClock.
	Clock Clock
}

// NewSession creates an idle session. timing and blob are only read, so
// concurrent sessions may share them.
func NewSession(timing recording.TimingStream, blob recording.OutputBlob, sink Sink, opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	return &Session{
		ID:         opts.ID,
		timing:     timing,
		blob:       blob,
		speed:      NormalizeSpeed(opts.Speed, 0),
		clock:      clock,
		sink:       sink,
		phase:      PhaseIdle,
		readOffset: blob.HeaderOffset(),
	}
}

// Speed returns the effective playback speed.
func (s *Session) Speed() float64 { return s.speed }

// Duration returns the unscaled length of the recording in seconds.
func (s *Session) Duration() float64 { return s.timing.Duration() }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Progress returns a snapshot of the session's position.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{
		Phase:        s.phase,
		Cursor:       s.cursor,
		Entries:      len(s.timing),
		ReadOffset:   s.readOffset,
		BytesEmitted: s.bytesEmitted,
		Batches:      s.batches,
		ScheduledMs:  s.scheduledMs,
	}
}

// Start emits the start event and schedules the first batch. It is a no-op
// unless the session is idle.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return
	}
	s.phase = PhaseScheduled
	s.emitLocked(Event{
		Type:            EventStart,
		SessionID:       s.ID,
		DurationSeconds: s.timing.Duration(),
		Speed:           s.speed,
	})
	s.scheduleNextLocked()
}

// Stop cancels playback. It reports whether a running session was stopped;
// calling it again, or on an idle or finished session, has no effect beyond
// preventing a later Start. No events are emitted after Stop returns.
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseFinished, PhaseStopped:
		return false
	case PhaseIdle:
		s.phase = PhaseStopped
		return false
	}

	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.phase = PhaseStopped
	return true
}

func (s *Session) runningLocked() bool {
	return s.phase == PhaseScheduled || s.phase == PhaseEmitting
}

// scheduleNextLocked arms the timer for the next batch, or finishes the
// session when the timing stream is exhausted. Must be called with s.mu held.
func (s *Session) scheduleNextLocked() {
	if !s.runningLocked() {
		return
	}
	if s.cursor >= len(s.timing) {
		s.phase = PhaseFinished
		s.pending = nil
		s.emitLocked(Event{Type: EventEnd, SessionID: s.ID})
		return
	}

	b := nextBatch(s.timing, s.cursor, s.speed)
	s.cursor = b.end

	waitMs := b.delay * 1000 / s.speed
	s.scheduledMs += waitMs
	s.phase = PhaseScheduled

	gen := s.gen
	s.pending = s.clock.AfterFunc(waitDuration(waitMs), func() {
		s.tick(gen, b.bytes)
	})
}

// waitDuration converts a scaled wait in milliseconds to a Duration,
// saturating at the largest representable Duration.
func waitDuration(ms float64) time.Duration {
	ns := ms * float64(time.Millisecond)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	if ns <= 0 || math.IsNaN(ns) {
		return 0
	}
	return time.Duration(ns)
}

// tick is the timer callback for one batch.
func (s *Session) tick(gen uint64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || !s.runningLocked() {
		return
	}
	s.pending = nil
	s.phase = PhaseEmitting
	s.batches++

	chunk := s.blob.Slice(s.readOffset, n)
	s.readOffset += len(chunk)
	if len(chunk) > 0 {
		s.bytesEmitted += len(chunk)
		s.emitLocked(Event{Type: EventOutput, Text: string(chunk)})
	}

	s.scheduleNextLocked()
}

// emitLocked forwards ev to the sink. Failures are logged and playback goes
// on.
func (s *Session) emitLocked(ev Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Emit(ev); err != nil {
		log.Printf("[replay] session=%s emit %s failed: %v", s.ID, ev.Type, err)
	}
}
