package speech

import "strings"

// CleanSegment normalizes transcript whitespace.
func CleanSegment(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.Join(strings.Fields(raw), " ")
}

// MergeSegment appends a finalized chunk to accumulated text. The stream
// delivers discrete final deltas, so a chunk equal to the buffer is a
// repeated utterance, not a re-delivery, and must be kept.
func MergeSegment(accumulated, chunk string) string {
	chunk = CleanSegment(chunk)
	if chunk == "" {
		return accumulated
	}
	return accumulated + chunk
}
