// Package biometric implements the presence-gated fingerprint scanning
// state machine: Idle, Scanning, Armed. The source's mutex-and-two-
// condition-variables coordination is re-expressed here as a single-owner
// goroutine driven by an event channel, with the presence check reading an
// atomically-stored live template (cleared by the goroutine when the armed
// window expires) so the protocol dispatcher never blocks on the scan.
package biometric

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-u2f/authenticator/pkg/options"
)

// ScanDuration is how long a scan stays active after being armed, and how
// long a captured template remains live once armed, before self-cancelling.
const ScanDuration = 5 * time.Second

type state int

const (
	stateIdle state = iota
	stateScanning
	stateArmed
)

// Monitor owns the capture source for the life of the process. Arm and
// Consume are fire-and-forget signals to the owning goroutine; LiveTemplate
// is a non-blocking read of the most recently captured template, valid
// only while the monitor is Armed.
type Monitor struct {
	source  CaptureSource
	matcher Matcher
	now     func() time.Time
	logger  *slog.Logger
	ctx     context.Context

	arm      chan struct{}
	consume  chan struct{}
	shutdown chan struct{}
	done     chan struct{}

	liveTemplate atomic.Pointer[[]byte]
	armedUntil   atomic.Pointer[time.Time]
}

func NewMonitor(source CaptureSource, matcher Matcher, opts ...options.Option) *Monitor {
	oo := options.NewOptions(opts...)

	m := &Monitor{
		source:   source,
		matcher:  matcher,
		now:      oo.Now,
		logger:   oo.Logger,
		ctx:      oo.Context,
		arm:      make(chan struct{}, 1),
		consume:  make(chan struct{}, 1),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.run()
	return m
}

// Arm transitions Idle to Scanning (enabling the capture source) or, if
// already Scanning or Armed, extends the scan window — matching the
// source's enableCapture behavior of refreshing the timeout without
// restarting an in-flight scan.
func (m *Monitor) Arm() {
	select {
	case m.arm <- struct{}{}:
	default:
	}
}

// Consume discards the live template and returns to Idle, called after a
// caller has already decided presence was satisfied.
func (m *Monitor) Consume() {
	select {
	case m.consume <- struct{}{}:
	default:
	}
}

// Shutdown stops the owning goroutine and disables the capture source if
// it was on.
func (m *Monitor) Shutdown() {
	close(m.shutdown)
	<-m.done
}

// MatchScore compares stored against the monitor's configured matcher.
// It does not touch monitor state.
func (m *Monitor) MatchScore(stored, live []byte) (int, error) {
	return m.matcher.Match(stored, live)
}

// LiveTemplate returns the most recently captured template, or nil if
// nothing has been captured since the last Consume, expiry, or
// finger-removed/unplug event. Arm does not clear it.
func (m *Monitor) LiveTemplate() []byte {
	p := m.liveTemplate.Load()
	if p == nil {
		return nil
	}
	return *p
}

func (m *Monitor) run() {
	defer close(m.done)

	st := stateIdle
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	resetTimer := func(d time.Duration) {
		timer.Stop()
		select {
		case <-timer.C:
		default:
		}
		timer.Reset(d)
	}

	for {
		select {
		case <-m.shutdown:
			timer.Stop()
			if st != stateIdle {
				m.source.Disable()
			}
			return

		case <-m.ctx.Done():
			timer.Stop()
			if st != stateIdle {
				m.source.Disable()
			}
			return

		case <-m.arm:
			if st == stateIdle {
				m.source.Enable()
				st = stateScanning
			}
			until := m.now().Add(ScanDuration)
			m.armedUntil.Store(&until)
			resetTimer(ScanDuration)

		case <-m.consume:
			if st == stateArmed {
				st = stateIdle
				m.liveTemplate.Store(nil)
				m.armedUntil.Store(nil)
				m.source.Disable()
				timer.Stop()
			}

		case evt := <-m.source.Events():
			m.handleCaptureEvent(evt, &st, resetTimer)

		case <-timer.C:
			switch st {
			case stateScanning:
				m.source.Disable()
			case stateArmed:
				m.liveTemplate.Store(nil)
				m.source.Disable()
			}
			st = stateIdle
			m.armedUntil.Store(nil)
		}
	}
}

func (m *Monitor) handleCaptureEvent(evt CaptureEvent, st *state, resetTimer func(time.Duration)) {
	switch evt.Kind {
	case EventCaptured:
		tmpl := append([]byte(nil), evt.Template...)
		m.liveTemplate.Store(&tmpl)
		*st = stateArmed
		until := m.now().Add(ScanDuration)
		m.armedUntil.Store(&until)
		resetTimer(ScanDuration)
	case EventRemoved, EventUnplug:
		m.liveTemplate.Store(nil)
		if *st == stateArmed {
			*st = stateScanning
		}
	default:
		m.logger.Debug("biometric capture event", "kind", evt.Kind.String())
	}
}
