package process

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/kbukum/execkit/logger"
)

// Handler receives one line of child output at a time, without its newline.
type Handler interface {
	HandleLine(line string)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(line string)

func (f HandlerFunc) HandleLine(line string) { f(line) }

// LoggingHandler returns a Handler that logs every non-empty line at level,
// with prefix prepended.
func LoggingHandler(log *logger.Logger, level zerolog.Level, prefix string) Handler {
	return HandlerFunc(func(line string) {
		if line == "" {
			return
		}
		log.Log(level, prefix+line)
	})
}

// Tee returns a Handler that forwards every line to each non-nil handler in order.
func Tee(handlers ...Handler) Handler {
	var hs []Handler
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	if len(hs) == 1 {
		return hs[0]
	}
	return HandlerFunc(func(line string) {
		for _, h := range hs {
			h.HandleLine(line)
		}
	})
}

// lineBuffer accumulates lines for programmatic return.
type lineBuffer struct {
	lines []string
}

func (b *lineBuffer) HandleLine(line string) {
	b.lines = append(b.lines, line)
}

// String joins the lines with newlines. Since the final flush of a stream
// always produces one more line, the result equals the bytes the child wrote.
func (b *lineBuffer) String() string {
	return strings.Join(b.lines, "\n")
}
