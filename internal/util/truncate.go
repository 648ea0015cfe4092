package util

import "fmt"

// DefaultLogMaxLen caps provider response bodies quoted in log lines (1KB).
const DefaultLogMaxLen = 1024

// TruncateLog shortens long strings for logging, noting the original size.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateBytes is TruncateLog over []byte with the default cap, for the
// common quote-the-error-body pattern in the Raindrop gateway.
func TruncateBytes(b []byte) string {
	return TruncateLog(string(b), DefaultLogMaxLen)
}
