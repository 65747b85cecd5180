package replay

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nyrahul/shellsight/internal/recording"
)

// TestBatchingPreservesBytesAndTime checks the batching invariants over random
// recordings: every obtainable byte is emitted exactly once, in order, and the
// summed batch waits equal the summed scaled entry delays.
func TestBatchingPreservesBytesAndTime(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("bytes and schedule time are conserved", prop.ForAll(
		func(delaysUs []uint16, sizes []uint8, blobLen uint16, speed float64) bool {
			n := len(delaysUs)
			if len(sizes) < n {
				n = len(sizes)
			}
			stream := make(recording.TimingStream, n)
			var wantMs float64
			for i := 0; i < n; i++ {
				stream[i] = recording.TimingEntry{Delay: float64(delaysUs[i]) / 1e6, Bytes: int(sizes[i] % 32)}
				wantMs += stream[i].Delay * 1000 / speed
			}

			var src strings.Builder
			for i := 0; i < int(blobLen); i++ {
				src.WriteByte(byte('a' + i%26))
			}
			blob := recording.NewOutputBlob([]byte(src.String()))

			sink := &collector{}
			clock := NewManualClock()
			s := NewSession(stream, blob, sink, Options{Speed: speed, Clock: clock})
			s.Start()
			clock.Advance(24 * time.Hour)

			if s.Phase() != PhaseFinished {
				return false
			}

			wantBytes := stream.TotalBytes()
			if wantBytes > blob.Playable() {
				wantBytes = blob.Playable()
			}
			got := strings.Join(sink.outputs(), "")
			if got != src.String()[:wantBytes] {
				return false
			}

			p := s.Progress()
			return p.BytesEmitted == wantBytes && math.Abs(p.ScheduledMs-wantMs) < 1e-6
		},
		gen.SliceOf(gen.UInt16()),
		gen.SliceOf(gen.UInt8()),
		gen.UInt16Range(0, 4096),
		gen.OneConstOf(0.25, 0.5, 1.0, 2.0, 8.0),
	))

	properties.TestingRun(t)
}
