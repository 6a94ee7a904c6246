// Package actions isolates the shell- and sysfs-level escape hatches the
// rest of the daemon needs but cannot express as plain file I/O on its
// own domain objects: mounting FunctionFS for MTP, starting/stopping the
// MTP userspace service, and acquiring/releasing the kernel wake lock
// that brackets a cable event dispatch. Keeping them behind a named
// collaborator lets the gadget backend and cable observer stay pure file
// I/O (or a fake) in tests.
package actions

import (
	"os"
	"os/exec"

	"github.com/librescoot/usbmoded/pkg/util"
)

const mtpMountPoint = "/dev/mtp"

const (
	wakeLockPath   = "/sys/power/wake_lock"
	wakeUnlockPath = "/sys/power/wake_unlock"
	wakeLockName   = "usbmoded-cable-event"
)

// SystemActions is the real collaborator, invoking mount(8) and the
// configured MTP service unit via systemctl.
type SystemActions struct {
	FunctionFSSource string // e.g. "ffs.mtp" mount source tag
	MTPServiceUnit   string // e.g. "mtpd.service"
	run              func(name string, args ...string) error
}

// NewSystemActions returns the real collaborator. mountSource is the
// FunctionFS mount source, serviceUnit the systemd unit that runs the MTP
// userspace daemon.
func NewSystemActions(mountSource, serviceUnit string) *SystemActions {
	return &SystemActions{
		FunctionFSSource: mountSource,
		MTPServiceUnit:   serviceUnit,
		run:              runCommand,
	}
}

func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		util.WithOperation("actions.run").Warnf("%s %v failed: %v (%s)", name, args, err, out)
		return err
	}
	return nil
}

// MountMTP mounts FunctionFS at /dev/mtp.
func (a *SystemActions) MountMTP() error {
	source := a.FunctionFSSource
	if source == "" {
		source = "ffs.mtp"
	}
	return a.run("mount", "-t", "functionfs", source, mtpMountPoint)
}

// StartMTPService starts the userspace MTP daemon.
func (a *SystemActions) StartMTPService() error {
	if a.MTPServiceUnit == "" {
		return nil
	}
	return a.run("systemctl", "start", a.MTPServiceUnit)
}

// StopMTPService stops the userspace MTP daemon.
func (a *SystemActions) StopMTPService() error {
	if a.MTPServiceUnit == "" {
		return nil
	}
	return a.run("systemctl", "stop", a.MTPServiceUnit)
}

// AcquireWakeLock takes the named kernel wake lock through
// /sys/power/wake_lock, holding the device awake for the duration of one
// cable device-event dispatch so it cannot suspend mid-decision.
func (a *SystemActions) AcquireWakeLock() error {
	return writeWakeLock(wakeLockPath)
}

// ReleaseWakeLock releases the lock AcquireWakeLock took, via
// /sys/power/wake_unlock.
func (a *SystemActions) ReleaseWakeLock() error {
	return writeWakeLock(wakeUnlockPath)
}

func writeWakeLock(path string) error {
	if err := os.WriteFile(path, []byte(wakeLockName), 0o200); err != nil {
		util.WithOperation("actions.wakelock").Warnf("write %s failed: %v", path, err)
		return err
	}
	return nil
}
