package recording

import "bytes"

const (
	// HeaderMarker is the text script(1) writes at the start of a typescript.
	HeaderMarker = "Script started"

	// headerProbeLen bounds how much of the blob is inspected for the marker.
	headerProbeLen = 20
)

// DetectOffset returns the index where captured terminal output starts in a
// typescript. When the first bytes carry the script(1) preamble marker and
// the blob contains a line feed, the offset is just past the first line feed.
// Otherwise it is 0.
func DetectOffset(blob []byte) int {
	probe := blob
	if len(probe) > headerProbeLen {
		probe = probe[:headerProbeLen]
	}
	if !bytes.HasPrefix(probe, []byte(HeaderMarker)) {
		return 0
	}
	i := bytes.IndexByte(blob, '\n')
	if i < 0 {
		return 0
	}
	return i + 1
}

// OutputBlob is an immutable typescript together with the offset playback
// reads begin at. It is safe to share between concurrent replays.
type OutputBlob struct {
	data   []byte
	offset int
}

// NewOutputBlob wraps data and detects its header offset. The caller must not
// modify data afterwards.
func NewOutputBlob(data []byte) OutputBlob {
	return OutputBlob{data: data, offset: DetectOffset(data)}
}

// HeaderOffset is the first index eligible for playback reads.
func (b OutputBlob) HeaderOffset() int { return b.offset }

// Len is the full length of the blob, header included.
func (b OutputBlob) Len() int { return len(b.data) }

// Playable is the number of bytes after the header.
func (b OutputBlob) Playable() int { return len(b.data) - b.offset }

// Slice returns up to n bytes starting at from. Reads past the end are
// clipped, so the result may be shorter than n or empty. The returned slice
// aliases the blob and must not be modified.
func (b OutputBlob) Slice(from, n int) []byte {
	if from < 0 || n <= 0 || from >= len(b.data) {
		return nil
	}
	end := from + n
	if end > len(b.data) || end < from {
		end = len(b.data)
	}
	return b.data[from:end]
}
