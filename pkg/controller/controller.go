package controller

import (
	"sync"

	"github.com/librescoot/usbmoded/pkg/cable"
	"github.com/librescoot/usbmoded/pkg/mode"
	"github.com/librescoot/usbmoded/pkg/selector"
	"github.com/librescoot/usbmoded/pkg/util"
)

// Signals is the outbound half of the event bridge interface:
// the controller calls these on every state change; a concrete bridge
// realizes the wire format.
type Signals interface {
	CurrentState(m mode.Name)
	TargetState(m mode.Name)
	Event(name string)
}

// PermissionChecker is the inbound half's guard: whitelist and capability
// policy for a requested mode on behalf of a given user.
type PermissionChecker interface {
	Allowed(user mode.UserID, m mode.Name) bool
}

// PolicyFunc builds the selector.Policy snapshot the controller needs to
// run the mode selector for a given user; the caller (main loop) captures
// whatever session/lock state the selector needs at call time.
type PolicyFunc func(user mode.UserID) selector.Policy

// Controller owns ControllerState and is its single mutator.
// SetCableState, RequestMode, and ModeSwitched are each reached from a
// different goroutine (the cable watcher, the bridge poller or an
// optional debug REPL, and main's own completions consumer) with no
// serialization between them, so every mutating entry point holds the
// mutex across its full mutate-publish-send critical section: a second
// caller blocked on the lock only proceeds once the first call's state
// transition, signal publish, and worker post have all landed, keeping
// the published signals and the request the worker next coalesces to
// in order with the final ControllerState.
type Controller struct {
	mu    sync.Mutex
	state State

	modes     *mode.List
	synonyms  map[mode.Name]mode.Name
	user      mode.UserID
	buildPolicy PolicyFunc

	requests chan<- mode.Name
	signals  Signals

	busy bool
}

// New constructs a Controller. requests is the main→worker channel;
// synonyms maps internal modes with no direct external exposure
// (e.g. charging_fallback) to their configured user-visible name.
func New(modes *mode.List, synonyms map[mode.Name]mode.Name, requests chan<- mode.Name, signals Signals, buildPolicy PolicyFunc) *Controller {
	return &Controller{
		state:       State{Internal: mode.Undefined, Target: mode.Undefined, External: mode.Undefined, UserForMode: mode.UnknownUser},
		modes:       modes,
		synonyms:    synonyms,
		user:        mode.UnknownUser,
		buildPolicy: buildPolicy,
		requests:    requests,
		signals:     signals,
	}
}

// State returns a snapshot of ControllerState.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// CanonicalExternal maps an internal mode to its externally published
// name: undefined maps to itself, modes with a configured synonym map to
// it, everything else maps to itself.
func (c *Controller) CanonicalExternal(internal mode.Name) mode.Name {
	if internal == mode.Undefined {
		return mode.Undefined
	}
	if syn, ok := c.synonyms[internal]; ok {
		return syn
	}
	return internal
}

// SetCableState is called by the cable observer (B) on every debounced
// cable-state change.
func (c *Controller) SetCableState(s cable.State, user mode.UserID) {
	log := util.WithCable(s.String())
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	switch s {
	case cable.Disconnected:
		log.Info("cable disconnected, requesting undefined")
		c.SetUsbMode(mode.Undefined)
	case cable.ChargerConnected:
		log.Info("charger connected, requesting charger mode")
		c.SetUsbMode(mode.Charger)
	case cable.PcConnected:
		policy := c.buildPolicy(user)
		chosen, err := selector.Select(s, user, policy, c.modes)
		if err != nil {
			log.Warnf("selector failed, falling back to charging_fallback: %v", err)
			chosen = mode.ChargingFallback
		}
		log.Infof("pc connected, selector chose %s", chosen)
		c.SetUsbMode(chosen)
	default:
		log.Warn("unknown cable state, requesting undefined")
		c.SetUsbMode(mode.Undefined)
	}
}

// SetUsbMode implements the Idle/Busy(target) state machine. A request
// equal to the current internal mode is a no-op; otherwise it becomes
// the new target, external is published as busy, and a work item is
// posted to the worker — superseding any not-yet-started pending
// request (coalescing happens on read in the worker).
//
// The mutex is held for the whole call, including the signal publish
// and the worker post: SetUsbMode and ModeSwitched are reached from
// independent goroutines (cable watcher, bridge poller, debug REPL,
// main's completions consumer), and releasing the lock before
// publishing would let a second caller's full mutate-publish-send
// interleave inside this one, so the last signal published and the
// last item landed in requests would not have to match the final
// ControllerState.
func (c *Controller) SetUsbMode(m mode.Name) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Idle: target==internal, so comparing against Target also covers
	// the "m == internal" no-op case. Busy(t): comparing against Target
	// implements the "m == t" no-op case.
	if m == c.state.Target {
		return
	}
	c.state.Internal = m
	c.state.Target = m
	c.state.External = mode.Busy
	c.state.UserForMode = mode.UnknownUser
	c.busy = true

	c.signals.TargetState(m)
	c.signals.CurrentState(mode.Busy)
	if m == mode.Ask {
		c.signals.Event("connected_dialog_show")
	}

	c.requests <- m
}

// ModeSwitched is the worker's completion callback. If
// the reported mode matches the current target, the switch is complete:
// internal becomes m, external publishes its canonical synonym, and the
// controller returns to Idle. If a newer SetUsbMode call superseded the
// target while this work was in flight, the completion is stale: the controller
// stays Busy(t) and relies on the request already posted for the current
// target to produce the next, matching completion.
func (c *Controller) ModeSwitched(m mode.Name) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m != c.state.Target {
		return
	}
	c.state.Internal = m
	external := c.CanonicalExternal(m)
	c.state.External = external
	c.state.UserForMode = c.user
	c.busy = false

	c.signals.CurrentState(external)
	if external == mode.Ask {
		c.signals.Event("connected_dialog_show")
	}
}

// RethinkChargingFallback is called on device-lock or user changes. It
// only acts while the cable is PC-connected and the current
// mode is undefined or charging_fallback; if data export is now
// permitted, it re-runs the selector and requests whatever it picks.
func (c *Controller) RethinkChargingFallback(cableState cable.State, user mode.UserID) {
	c.mu.Lock()
	current := c.state.Internal
	c.mu.Unlock()

	if cableState != cable.PcConnected {
		return
	}
	if current != mode.Undefined && current != mode.ChargingFallback {
		return
	}

	policy := c.buildPolicy(user)
	if !policy.DataExportPermitted {
		return
	}
	chosen, err := selector.Select(cableState, user, policy, c.modes)
	if err != nil {
		util.WithOperation("controller.rethink").Warnf("selector failed: %v", err)
		return
	}
	c.SetUsbMode(chosen)
}

// RequestMode is the inbound half of the event bridge:
// request_mode(name, uid), forwarded to SetUsbMode after a whitelist/
// capability permission check.
func (c *Controller) RequestMode(name mode.Name, user mode.UserID, checker PermissionChecker) error {
	if checker != nil && !checker.Allowed(user, name) {
		return util.NewPolicyDeniedError(string(user), string(name))
	}
	c.SetUsbMode(name)
	return nil
}
