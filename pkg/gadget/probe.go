package gadget

import (
	"os"

	"github.com/librescoot/usbmoded/pkg/util"
)

// Probe determines the backend kind once at startup by checking filesystem
// roots in order: ConfigFS gadget directory first, then the legacy
// Android-sysfs gadget.
func Probe(configfsRoot, androidUsbRoot, udcRoot string, actions Actions) (Backend, error) {
	if _, err := os.Stat(configfsRoot); err == nil {
		util.WithBackend("configfs").Info("probed configfs gadget root")
		return NewConfigFSBackend(configfsRoot, udcRoot, actions), nil
	}
	if _, err := os.Stat(androidUsbRoot); err == nil {
		util.WithBackend("android").Info("probed android_usb gadget root")
		return NewAndroidBackend(androidUsbRoot), nil
	}
	return nil, util.NewFatalError("backend probe", util.NewConfigAbsentError("gadget-backend", configfsRoot+" and "+androidUsbRoot))
}

// DefaultConfigFSRoot, DefaultAndroidRoot, DefaultUDCRoot are the standard
// kernel paths; callers override them in tests.
const (
	DefaultConfigFSRoot = configFSRoot
	DefaultAndroidRoot  = androidRoot
	DefaultUDCRoot      = defaultUDCRoot
)
