// Package util provides shared utility functions used across the codebase.
package util

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// FirstLine returns everything before the first newline. Prompts and
// feedback are frequently multi-line; listings show only their head.
func FirstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
