// Package autosave implements the debounced collection save.
//
// Concurrency model: a single internal goroutine owns the pending timer.
// Trigger resets it, so only the most recent scheduled save fires; Flush
// cancels any pending timer and saves synchronously.
package autosave

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// SaveFunc persists the collection.
type SaveFunc func() error

// Saver debounces calls to a SaveFunc.
type Saver struct {
	delay  time.Duration
	save   SaveFunc
	logger *slog.Logger

	triggerCh chan struct{}
	flushCh   chan chan error
	stopCh    chan struct{}
	stopped   chan struct{}
	closed    atomic.Bool
}

// New creates a Saver and starts its loop. delay defaults to one second.
func New(delay time.Duration, save SaveFunc, logger *slog.Logger) *Saver {
	if delay <= 0 {
		delay = time.Second
	}
	s := &Saver{
		delay:     delay,
		save:      save,
		logger:    logger,
		triggerCh: make(chan struct{}, 1),
		flushCh:   make(chan chan error),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Saver) run() {
	defer close(s.stopped)

	var timer *time.Timer
	var timerCh <-chan time.Time
	pending := false

	schedule := func() {
		pending = true
		if timer == nil {
			timer = time.NewTimer(s.delay)
			timerCh = timer.C
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.delay)
		}
	}

	cancel := func() {
		pending = false
		if timer != nil {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}

	for {
		select {
		case <-s.stopCh:
			if pending {
				if err := s.save(); err != nil {
					s.logger.Error("autosave: final save failed", slog.String("error", err.Error()))
				}
			}
			cancel()
			return

		case <-s.triggerCh:
			schedule()

		case <-timerCh:
			pending = false
			if err := s.save(); err != nil {
				s.logger.Error("autosave: save failed", slog.String("error", err.Error()))
			}

		case resp := <-s.flushCh:
			cancel()
			resp <- s.save()
		}
	}
}

// Trigger schedules a save after the debounce delay, resetting any save
// already pending.
func (s *Saver) Trigger() {
	if s.closed.Load() {
		return
	}
	select {
	case s.triggerCh <- struct{}{}:
	case <-s.stopped:
	default:
		// A trigger is already queued; the loop will reschedule.
	}
}

// Flush cancels any pending timer and saves synchronously.
func (s *Saver) Flush() error {
	if s.closed.Load() {
		return s.save()
	}
	resp := make(chan error, 1)
	select {
	case s.flushCh <- resp:
		return <-resp
	case <-s.stopped:
		return s.save()
	}
}

// Close stops the loop, performing a final save if one is pending.
func (s *Saver) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
}
