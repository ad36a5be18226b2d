package shellquote

import "strings"

// escapedQuote closes the current quoting, emits a literal quote and reopens quoting.
const escapedQuote = `'\''`

// Quote returns s wrapped in single quotes. Embedded single quotes are
// escaped so that sh re-splits the result into exactly s.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", escapedQuote) + "'"
}

// Command returns program followed by each quoted argument, space separated.
// The program name is emitted verbatim.
func Command(program string, args ...string) string {
	if len(args) == 0 {
		return program
	}
	var b strings.Builder
	b.WriteString(program)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(Quote(a))
	}
	return b.String()
}

// Join quotes every element of args and joins them with spaces.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}
