package recording

import (
	"math"
	"strconv"
	"strings"
)

// TimingEntry is a single line of a timing file: wait Delay seconds, then
// replay the next Bytes bytes of the typescript.
type TimingEntry struct {
	Delay float64 `json:"delay"`
	Bytes int     `json:"bytes"`
}

// TimingStream is the ordered list of entries parsed from one timing file.
// Order is playback order.
type TimingStream []TimingEntry

// ParseTiming converts timing-file text into a TimingStream. A line only
// contributes an entry when its first two whitespace-separated fields are a
// finite non-negative float and a non-negative base-10 integer; every other
// line is skipped. Extra trailing fields are ignored. ParseTiming never fails:
// empty or garbage input yields an empty stream.
func ParseTiming(text string) TimingStream {
	stream := make(TimingStream, 0, strings.Count(text, "\n")+1)
	for len(text) > 0 {
		var line string
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			line, text = text, ""
		}
		if entry, ok := parseTimingLine(line); ok {
			stream = append(stream, entry)
		}
	}
	return stream
}

func parseTimingLine(line string) (TimingEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return TimingEntry{}, false
	}

	delay, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(delay) || math.IsInf(delay, 0) || delay < 0 {
		return TimingEntry{}, false
	}

	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return TimingEntry{}, false
	}

	return TimingEntry{Delay: delay, Bytes: n}, true
}

// Duration returns the sum of all delays in seconds. It is 0 for an empty
// stream, and also when the sum overflows to infinity.
func (s TimingStream) Duration() float64 {
	var total float64
	for _, e := range s {
		total += e.Delay
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	return total
}

// TotalBytes returns the sum of all byte counts.
func (s TimingStream) TotalBytes() int {
	total := 0
	for _, e := range s {
		total += e.Bytes
	}
	return total
}

// TotalDuration parses text and returns the total playback time in seconds.
// Unparsable input yields 0.
func TotalDuration(text string) float64 {
	return ParseTiming(text).Duration()
}
