package platform

import "strings"

// Escaping helpers shared by the immediate and delayed code paths. Each
// automation tool interprets its payload in a different execution context,
// so the rules are tool-specific.

// shellQuote wraps s in single quotes for POSIX sh, closing and reopening
// the quotes around embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// appleScriptString escapes s for use inside a double-quoted AppleScript
// string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// sendKeysEscape escapes s for Windows Forms SendKeys, which assigns
// meaning to +^%~(){} and to bracketed sequences.
func sendKeysEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '+', '^', '%', '~', '(', ')', '{', '}', '[', ']':
			sb.WriteRune('{')
			sb.WriteRune(r)
			sb.WriteRune('}')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// powerShellQuote wraps s in single quotes for PowerShell, doubling
// embedded single quotes.
func powerShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
