package process

import (
	"os"
	"os/signal"

	"github.com/kbukum/execkit/logger"
)

// signalRelay forwards signals received by this process to a child. It is
// registered before the child starts so that nothing is lost in between.
type signalRelay struct {
	ch   chan os.Signal
	done chan struct{}
}

// relaySignals starts catching sigs. It returns nil when sigs is empty.
func relaySignals(sigs []os.Signal) *signalRelay {
	if len(sigs) == 0 {
		return nil
	}
	r := &signalRelay{
		ch:   make(chan os.Signal, len(sigs)),
		done: make(chan struct{}),
	}
	signal.Notify(r.ch, sigs...)
	return r
}

// start relays caught signals to proc until stop is called.
func (r *signalRelay) start(proc *os.Process, log *logger.Logger) {
	if r == nil {
		return
	}
	go func() {
		for {
			select {
			case sig := <-r.ch:
				log.Debug("forwarding signal", logger.Fields(logger.FieldPID, proc.Pid, "signal", sig.String()))
				if err := proc.Signal(sig); err != nil {
					log.Warn("could not forward signal", logger.ErrorFields("signal", err))
				}
			case <-r.done:
				return
			}
		}
	}()
}

func (r *signalRelay) stop() {
	if r == nil {
		return
	}
	signal.Stop(r.ch)
	close(r.done)
}
