package worker

import (
	"os"

	"github.com/librescoot/usbmoded/pkg/util"
)

// writeSysfs applies a single raw (path, value) write, used for the
// ModeDescriptor's generic sysfs_path/value pair and the
// android_extra_sysfs_* series. A blank path is a no-op —
// not every mode carries one.
func writeSysfs(path, value string) error {
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return util.NewIoFailureError("write", path, err)
	}
	return nil
}
