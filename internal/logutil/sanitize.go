package logutil

import "strings"

// maxLogValue caps how much of a single user-provided value reaches the log.
const maxLogValue = 256

// SanitizeForLog removes newlines and control characters from user-provided
// strings (folder names, namespaces, identity headers) so they cannot forge
// extra log entries, and truncates overly long values.
func SanitizeForLog(s string) string {
	var b strings.Builder
	b.Grow(min(len(s), maxLogValue))
	n := 0
	for _, r := range s {
		if n >= maxLogValue {
			b.WriteString("...")
			break
		}
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r < 32 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
		n++
	}
	return b.String()
}

// PreviewBytes renders the start of a binary payload for debug logs, with
// non-printable bytes escaped.
func PreviewBytes(data []byte, max int) string {
	if len(data) > max {
		return SanitizeForLog(strings.ToValidUTF8(string(data[:max]), "?")) + "..."
	}
	return SanitizeForLog(strings.ToValidUTF8(string(data), "?"))
}
