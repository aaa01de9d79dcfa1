// Package shutdown turns interrupt signals into context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Handler listens for SIGINT and SIGTERM. The first signal runs the
// interrupt callback and cancels the crawl context so in-flight work can
// finish and the report still gets written; a second signal exits
// immediately.
type Handler struct {
	interrupted atomic.Bool
	cancel      context.CancelFunc
	onInterrupt func()
	sigChan     chan os.Signal
	quit        chan struct{}
	closeOnce   sync.Once
	forceExit   func(code int)
}

// Notify returns a handler and a child of parent that is cancelled on
// the first interrupt signal. onInterrupt may be nil.
func Notify(parent context.Context, onInterrupt func()) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel:      cancel,
		onInterrupt: onInterrupt,
		sigChan:     make(chan os.Signal, 2),
		quit:        make(chan struct{}),
		forceExit:   os.Exit,
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h, ctx
}

func (h *Handler) listen() {
	for {
		select {
		case <-h.quit:
			return
		case <-h.sigChan:
			if h.interrupted.CompareAndSwap(false, true) {
				if h.onInterrupt != nil {
					h.onInterrupt()
				}
				h.cancel()
				continue
			}
			// 128 + SIGINT
			h.forceExit(130)
		}
	}
}

// Interrupted reports whether a signal arrived.
func (h *Handler) Interrupted() bool {
	return h.interrupted.Load()
}

// Trigger delivers an interrupt programmatically.
func (h *Handler) Trigger() {
	select {
	case h.sigChan <- syscall.SIGINT:
	default:
	}
}

// Close stops listening. The crawl context is left as it is.
func (h *Handler) Close() {
	h.closeOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.quit)
	})
}
