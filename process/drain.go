package process

import (
	"golang.org/x/sys/unix"
)

// chunkSize bounds every read from a child pipe.
const chunkSize = 4096

// Swapped out by tests.
var (
	pollFn = unix.Poll
	readFn = unix.Read
)

// Drain reads every processor until it reports end of stream.
//
// Each round waits for readiness across all open descriptors with a single
// poll, then performs one read of at most 4096 bytes from each ready
// descriptor. A zero-length read closes the processor and drops it from the
// set. Interrupted polls and reads are retried; any other error is returned
// unmodified, leaving the remaining processors open.
func Drain(processors ...*LineProcessor) error {
	active := make([]*LineProcessor, 0, len(processors))
	for _, p := range processors {
		if p != nil {
			active = append(active, p)
		}
	}

	buf := make([]byte, chunkSize)
	fds := make([]unix.PollFd, 0, len(active))
	for len(active) > 0 {
		fds = fds[:0]
		for _, p := range active {
			fds = append(fds, unix.PollFd{Fd: int32(p.fd), Events: unix.POLLIN})
		}

		if _, err := pollFn(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}

		next := make([]*LineProcessor, 0, len(active))
		for i, p := range active {
			if fds[i].Revents == 0 {
				next = append(next, p)
				continue
			}
			n, err := readChunk(p.fd, buf)
			if err != nil {
				return err
			}
			if n == 0 {
				if err := p.Close(); err != nil {
					return err
				}
				continue
			}
			p.Feed(buf[:n])
			next = append(next, p)
		}
		active = next
	}
	return nil
}

func readChunk(fd int, buf []byte) (int, error) {
	for {
		n, err := readFn(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}
