package process

import (
	"bytes"
	"os"
	"strings"
)

// LineProcessor splits the bytes read from one pipe into lines.
//
// Splitting happens on raw bytes, so a multi-byte character cut in two by a
// read boundary is reassembled before decoding. Each line is decoded as UTF-8
// with invalid sequences replaced by U+FFFD.
type LineProcessor struct {
	file    *os.File
	fd      int
	handler Handler
	buf     []byte
	closed  bool
}

// NewLineProcessor returns a processor reading from f and delivering lines to h.
func NewLineProcessor(f *os.File, h Handler) *LineProcessor {
	return &LineProcessor{
		file:    f,
		fd:      int(f.Fd()),
		handler: h,
	}
}

// Fd returns the descriptor the processor reads from.
func (p *LineProcessor) Fd() int {
	return p.fd
}

// Feed appends chunk to the pending buffer and delivers every complete line.
func (p *LineProcessor) Feed(chunk []byte) {
	p.buf = append(p.buf, chunk...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			break
		}
		p.handler.HandleLine(decodeLine(p.buf[:i]))
		p.buf = p.buf[i+1:]
	}
	if len(p.buf) == 0 {
		p.buf = nil
	}
}

// Close delivers whatever is left in the buffer as the final line, even when
// it is empty, and closes the file. Calling Close again is a no-op.
func (p *LineProcessor) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.handler.HandleLine(decodeLine(p.buf))
	p.buf = nil
	return p.file.Close()
}

// release closes the file without delivering anything.
func (p *LineProcessor) release() {
	if p.closed {
		return
	}
	p.closed = true
	p.buf = nil
	_ = p.file.Close()
}

func decodeLine(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
