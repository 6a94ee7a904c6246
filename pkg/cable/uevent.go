package cable

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const propertyPrefix = "POWER_SUPPLY_"

// UeventSource reads power-supply properties from a device's uevent file
// under /sys/class/power_supply/<name>/uevent, the standard kernel
// interface for power-supply attributes.
type UeventSource struct {
	path   string // .../power_supply/<name>/uevent
	values map[string]string
}

// NewUeventSource creates a source bound to the named power-supply device
// (e.g. "usb") under root (typically "/sys/class/power_supply").
func NewUeventSource(root, device string) *UeventSource {
	return &UeventSource{path: filepath.Join(root, device, "uevent")}
}

// UeventPath returns the uevent file path for device under root, the
// same path NewUeventSource reads — exported so a filesystem watcher can
// be pointed at the exact file a source will refresh from.
func UeventPath(root, device string) string {
	return filepath.Join(root, device, "uevent")
}

// Refresh re-reads the uevent file. It is called once per device-changed
// event before any Property lookups.
func (u *UeventSource) Refresh() error {
	f, err := os.Open(u.path)
	if err != nil {
		return err
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimPrefix(key, propertyPrefix)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	u.values = values
	return nil
}

// Property returns the last-refreshed value for key (without the
// POWER_SUPPLY_ prefix).
func (u *UeventSource) Property(key string) (string, bool) {
	if u.values == nil {
		return "", false
	}
	v, ok := u.values[key]
	return v, ok
}
