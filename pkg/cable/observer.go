package cable

import (
	"sync"
	"time"

	"github.com/librescoot/usbmoded/pkg/util"
)

// DebounceInterval is the fixed delay applied to a transition into
// PcConnected from a known prior state.
const DebounceInterval = 1500 * time.Millisecond

// Reinitializer reopens the underlying property source after a read
// failure. Returning an error here is fatal.
type Reinitializer func() (PropertySource, error)

// WakeLocker acquires and releases the kernel wake lock bracketing one
// device-event dispatch, so the device cannot suspend between the
// kernel uevent firing and the mode switch it triggers being posted to
// the worker.
type WakeLocker interface {
	AcquireWakeLock() error
	ReleaseWakeLock() error
}

// noopWakeLock is the default WakeLocker for callers (tests, or a
// caller that hasn't wired one via SetWakeLock) that don't need one.
type noopWakeLock struct{}

func (noopWakeLock) AcquireWakeLock() error { return nil }
func (noopWakeLock) ReleaseWakeLock() error { return nil }

// Observer converts device-changed events for a single power-supply
// device into a debounced CableState signal (component B).
type Observer struct {
	mu       sync.Mutex
	src      PropertySource
	reinit   Reinitializer
	clock    Clock
	debounce time.Duration
	onChange func(State)
	wakeLock WakeLocker

	state       State
	pending     Timer
	reinitTried bool
}

// New creates an Observer reading from src, emitting state changes to
// onChange. reinit is used once to recover from a read failure; a second
// failure is fatal.
func New(src PropertySource, reinit Reinitializer, onChange func(State)) *Observer {
	return &Observer{
		src:      src,
		reinit:   reinit,
		clock:    RealClock,
		debounce: DebounceInterval,
		onChange: onChange,
		wakeLock: noopWakeLock{},
		state:    Unknown,
	}
}

// SetWakeLock attaches the collaborator HandleEvent acquires and
// releases around each dispatch. Optional: an Observer with none set
// keeps running with a no-op lock.
func (o *Observer) SetWakeLock(wl WakeLocker) {
	o.wakeLock = wl
}

// State returns the last state committed to onChange.
func (o *Observer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// HandleEvent processes one device-changed notification: it refreshes
// the property source, classifies the result, and applies the debounce
// rule for promotions into PcConnected.
//
// A refresh failure triggers the observer's one-shot reinitialization;
// a failure of that reinitialization (or of the retried refresh) is
// fatal and returned as a *util.FatalError — the caller (the main loop)
// must exit the daemon.
//
// The whole dispatch runs under a held wake lock: acquired before the
// refresh, released once the resulting state has been classified and
// committed, so the device cannot suspend between the kernel event and
// the decision it causes.
func (o *Observer) HandleEvent() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.wakeLock.AcquireWakeLock(); err != nil {
		util.WithOperation("cable.wakelock").Warnf("acquire failed: %v", err)
	}
	defer func() {
		if err := o.wakeLock.ReleaseWakeLock(); err != nil {
			util.WithOperation("cable.wakelock").Warnf("release failed: %v", err)
		}
	}()

	if err := o.src.Refresh(); err != nil {
		if o.reinitTried {
			return util.NewFatalError("cable observer: read failed after reinitialization", err)
		}
		o.reinitTried = true
		util.WithOperation("cable.reinit").Warnf("power-supply read failed, reinitializing: %v", err)

		newSrc, rerr := o.reinit()
		if rerr != nil {
			return util.NewFatalError("cable observer: reinitialization failed", rerr)
		}
		o.src = newSrc
		if err := o.src.Refresh(); err != nil {
			return util.NewFatalError("cable observer: read failed immediately after reinitialization", err)
		}
	} else {
		o.reinitTried = false
	}

	warn := func(msg string) { util.WithOperation("cable.classify").Warn(msg) }
	raw := classify(o.src, warn)
	o.transition(raw)
	return nil
}

// transition applies the debounce rule and commits the new state,
// invoking onChange when it actually changes. Must be called with mu held.
func (o *Observer) transition(raw State) {
	prev := o.state

	if prev == Unknown {
		o.cancelPending()
		o.commit(raw)
		return
	}

	if raw == PcConnected {
		if o.pending == nil && prev != PcConnected {
			o.startDebounce()
		}
		// If already pending, the timer continues unchanged. If prev is
		// already PcConnected, there is nothing to do.
		return
	}

	// Disconnected or ChargerConnected: immediate, and cancels any
	// pending promotion into PcConnected.
	o.cancelPending()
	o.commit(raw)
}

func (o *Observer) startDebounce() {
	o.pending = o.clock.AfterFunc(o.debounce, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.pending == nil {
			return // canceled before firing
		}
		o.pending = nil
		o.commit(PcConnected)
	})
}

func (o *Observer) cancelPending() {
	if o.pending != nil {
		o.pending.Stop()
		o.pending = nil
	}
}

func (o *Observer) commit(s State) {
	if s == o.state {
		return
	}
	o.state = s
	util.WithCable(s.String()).Info("cable state changed")
	if o.onChange != nil {
		o.onChange(s)
	}
}
