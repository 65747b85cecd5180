package replay

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nyrahul/shellsight/internal/recording"
)

// Player owns the replay of a single viewer connection. At most one Session
// is live at a time: Play cancels whatever was playing before.
type Player struct {
	sink  Sink
	clock Clock

	mu      sync.Mutex
	current *Session
	closed  bool
}

// NewPlayer creates a player that emits to sink. A nil clock means RealClock.
func NewPlayer(sink Sink, clock Clock) *Player {
	if clock == nil {
		clock = RealClock()
	}
	return &Player{sink: sink, clock: clock}
}

// Play stops the current session, if any, and starts a new one over timing
// and blob. It returns nil once the player is closed.
func (p *Player) Play(timing recording.TimingStream, blob recording.OutputBlob, speed float64) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	if p.current != nil {
		p.current.Stop()
	}

	s := NewSession(timing, blob, p.sink, Options{
		ID:    uuid.NewString(),
		Speed: speed,
		Clock: p.clock,
	})
	p.current = s
	s.Start()
	return s
}

// Stop cancels the current session. It reports whether anything was playing.
func (p *Player) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return false
	}
	return p.current.Stop()
}

// Current returns the most recent session, or nil.
func (p *Player) Current() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close stops playback and rejects further Play calls. Safe to call more than
// once.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.current != nil {
		p.current.Stop()
	}
}
