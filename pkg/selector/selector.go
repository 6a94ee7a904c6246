// Package selector implements the pure mode-selection policy: given cable state, user, and policy, it picks the
// ModeName the controller should switch to.
package selector

import (
	"fmt"

	"github.com/librescoot/usbmoded/pkg/cable"
	"github.com/librescoot/usbmoded/pkg/mode"
	"github.com/librescoot/usbmoded/pkg/util"
)

// Policy carries every input the selector needs beyond cable state and
// user. All fields are read-only
// snapshots the caller (the controller, on the main loop) assembles
// fresh for each call — Select itself is a pure function.
type Policy struct {
	// Rescue, when set, forces developer_mode unconditionally (step 1).
	Rescue bool

	// Diagnostic, when set, selects the first entry of Modes.Diagnostic
	// (step 2).
	Diagnostic bool

	// ConfiguredMode returns the mode configured for user, or the
	// global slot's mode when user is mode.UnknownUser (step 3).
	ConfiguredMode func(user mode.UserID) mode.Name

	// AvailableModes returns the modes currently available to user,
	// used to resolve an "ask" configuration to a single choice when
	// exactly one mode is available (step 4).
	AvailableModes func(user mode.UserID) []mode.Name

	// DataExportPermitted reports whether the device state allows
	// exposing data functions right now: unlocked, not acting-dead, and
	// the user session did not just change (step 5).
	DataExportPermitted bool
}

// Select runs the mode selection decision table.
func Select(cableState cable.State, user mode.UserID, policy Policy, modes *mode.List) (mode.Name, error) {
	log := util.WithOperation("selector.select")

	if policy.Rescue {
		log.Info("rescue flag set, selecting developer_mode")
		return "developer_mode", nil
	}

	if policy.Diagnostic {
		if modes == nil || len(modes.Diagnostic) == 0 {
			return "", fmt.Errorf("diagnostic mode requested but no diagnostic modes configured: %w", util.ErrConfigAbsent)
		}
		chosen := modes.Diagnostic[0]
		log.Infof("diagnostic flag set, selecting %s", chosen)
		return chosen, nil
	}

	var configured mode.Name
	if policy.ConfiguredMode != nil {
		configured = policy.ConfiguredMode(user)
	}

	m := configured
	if m == mode.Ask {
		if user == mode.UnknownUser {
			log.Info("mode is ask but user is unknown, selecting charging_fallback")
			return mode.ChargingFallback, nil
		}
		if policy.AvailableModes != nil {
			available := policy.AvailableModes(user)
			if len(available) == 1 {
				log.Infof("mode is ask, exactly one mode available: %s", available[0])
				m = available[0]
			}
		}
	}

	if m != "" && policy.DataExportPermitted {
		return m, nil
	}

	log.Info("data export not permitted or no mode configured, selecting charging_fallback")
	return mode.ChargingFallback, nil
}
