// Package shellquote produces POSIX sh safe tokens.
//
// Quote wraps a single argument in single quotes. Command builds a whole
// invocation string where the program is trusted and every argument is
// quoted, so the result can be embedded as one argument of an outer
// invocation (for example the remote shell passed to rsync -e).
package shellquote
