// Package controller implements the mode controller: the single mutator of ControllerState, serializing mode-switch
// requests onto the worker channel and reacting to cable-state changes.
package controller

import (
	"github.com/librescoot/usbmoded/pkg/mode"
)

// State is the internal/target/external
// ModeName plus the user the current mode was selected for. It is owned
// by the Controller and read or written only under the Controller's mutex.
type State struct {
	Internal    mode.Name
	Target      mode.Name
	External    mode.Name
	UserForMode mode.UserID
}

// Snapshot returns a copy safe to read after the lock is released.
func (s State) Snapshot() State { return s }
