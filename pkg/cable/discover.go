package cable

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/librescoot/usbmoded/pkg/util"
)

// DefaultSubsystemRoot is the standard kernel location for power-supply
// class devices.
const DefaultSubsystemRoot = "/sys/class/power_supply"

// Discover selects the power-supply device the observer should watch.
// It first tries configuredPath (if non-empty); if that device doesn't
// exist, it enumerates subsystemRoot and scores every device, returning
// the highest-scoring device name.
//
// An empty result with a non-nil error means initialization must fail
//.
func Discover(subsystemRoot, configuredPath string) (string, error) {
	if configuredPath != "" {
		if _, err := os.Stat(configuredPath); err == nil {
			return filepath.Base(configuredPath), nil
		}
		util.WithOperation("cable.discover").Warnf("configured power-supply path %q absent, falling back to enumeration", configuredPath)
	}

	entries, err := os.ReadDir(subsystemRoot)
	if err != nil {
		return "", util.NewConfigAbsentError("cable.discover", subsystemRoot)
	}

	best := ""
	bestScore := 0
	for _, entry := range entries {
		name := entry.Name()
		score := scoreDevice(subsystemRoot, name)
		if score > bestScore {
			bestScore = score
			best = name
		}
	}

	if best == "" || bestScore <= 0 {
		return "", util.NewConfigAbsentError("cable.discover", subsystemRoot)
	}
	return best, nil
}

// scoreDevice implements the power-supply device scoring table.
func scoreDevice(subsystemRoot, name string) int {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "battery") || strings.Contains(name, "BAT") {
		return 0
	}

	score := 0
	if strings.Contains(lower, "usb") {
		score += 10
	}
	if strings.Contains(lower, "charger") {
		score += 5
	}

	dir := filepath.Join(subsystemRoot, name)
	if hasAttr(dir, "present") {
		score += 5
	}
	if hasAttr(dir, "online") {
		score += 10
	}
	if hasAttr(dir, "type") {
		score += 10
	}

	return score
}

func hasAttr(dir, attr string) bool {
	_, err := os.Stat(filepath.Join(dir, attr))
	return err == nil
}
