package platform

import "testing"

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"two words", "'two words'"},
		{"it's", `'it'\''s'`},
		{`$HOME && rm`, `'$HOME && rm'`},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAppleScriptString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`say "hi"`, `say \"hi\"`},
		{`back\slash`, `back\\slash`},
		{`both \"`, `both \\\"`},
	}
	for _, tt := range tests {
		if got := appleScriptString(tt.in); got != tt.want {
			t.Errorf("appleScriptString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSendKeysEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"a+b", "a{+}b"},
		{"100%", "100{%}"},
		{"f(x)", "f{(}x{)}"},
		{"{ENTER}", "{{}ENTER{}}"},
		{"~^[]", "{~}{^}{[}{]}"},
	}
	for _, tt := range tests {
		if got := sendKeysEscape(tt.in); got != tt.want {
			t.Errorf("sendKeysEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPowerShellQuote(t *testing.T) {
	if got := powerShellQuote("it's"); got != "'it''s'" {
		t.Errorf("powerShellQuote = %q", got)
	}
}
