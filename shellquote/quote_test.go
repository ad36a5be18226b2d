package shellquote

import (
	"os/exec"
	"testing"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"a safe string", "'a safe string'"},
		{"an un$@fe string containing a ' quote", `'an un$@fe string containing a '\'' quote'`},
		{"''", `''\'''\'''`},
		{"tab\tand\nnewline", "'tab\tand\nnewline'"},
	}
	for _, tc := range tests {
		if got := Quote(tc.in); got != tc.want {
			t.Errorf("Quote(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name    string
		program string
		args    []string
		want    string
	}{
		{"no args", "cmd", nil, "cmd"},
		{"empty args", "cmd", []string{}, "cmd"},
		{"program verbatim", "a command", []string{"with", "unsafe 'argument'"}, `a command 'with' 'unsafe '\''argument'\'''`},
		{"space and quote", "cmd", []string{"with space", "it's"}, `cmd 'with space' 'it'\''s'`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Command(tc.program, tc.args...); got != tc.want {
				t.Errorf("Command() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if got := Join([]string{"-c", "arcfour"}); got != "'-c' 'arcfour'" {
		t.Errorf("Join() = %q", got)
	}
}

func TestQuoteRoundTripThroughShell(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	inputs := []string{
		"",
		"plain",
		"it's",
		`"double" and 'single'`,
		"$HOME `id` $(id) \\ ; | & * ?",
	}
	for _, in := range inputs {
		out, err := exec.Command(sh, "-c", "printf '%s' "+Quote(in)).Output()
		if err != nil {
			t.Fatalf("sh failed for %q: %v", in, err)
		}
		if string(out) != in {
			t.Errorf("round trip of %q gave %q", in, out)
		}
	}
}
