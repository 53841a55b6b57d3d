package tgui

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageRunes stays under Telegram's 4096-char message cap.
const MaxMessageRunes = 4000

// TruncRunes returns s cut to at most n runes, the last of which is "…"
// when anything was dropped.
func TruncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	// keep n-1 runes and end with the ellipsis
	count := 0
	for i := range s {
		if count == n-1 {
			return s[:i] + "…"
		}
		count++
	}
	return s
}

// Split splits long text into chunks of at most limit runes, preferring
// newline boundaries. A limit <= 0 means MaxMessageRunes.
func Split(s string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageRunes
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				// Avoid extremely small chunks.
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
