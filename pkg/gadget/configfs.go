package gadget

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/librescoot/usbmoded/pkg/util"
)

const (
	configFSRoot    = "/config/usb_gadget/g1"
	defaultUDCRoot  = "/sys/class/udc"

	// MTPSettle is the fixed settle interval after starting the MTP
	// function, before the UDC is re-enabled.
	MTPSettle = 1500 * time.Millisecond
)

// Actions is the escape-hatch collaborator for the two shell-level
// operations the ConfigFS backend cannot express as plain file I/O:
// mounting FunctionFS for MTP and starting/stopping the MTP userspace
// service.
type Actions interface {
	MountMTP() error
	StartMTPService() error
	StopMTPService() error
}

// ConfigFSBackend drives a ConfigFS gadget at /config/usb_gadget/g1.
type ConfigFSBackend struct {
	root    string
	configDir string
	udcRoot string
	actions Actions
	sleep   func(time.Duration)

	udcName string
	udcOnce bool
}

// NewConfigFSBackend returns a backend rooted at root (normally
// configFSRoot; overridable for tests). udcRoot is the UDC class
// directory to probe for the controller name (normally
// defaultUDCRoot); an empty string defaults to it.
func NewConfigFSBackend(root, udcRoot string, actions Actions) *ConfigFSBackend {
	if udcRoot == "" {
		udcRoot = defaultUDCRoot
	}
	return &ConfigFSBackend{
		root:      root,
		configDir: filepath.Join(root, "configs", "b.1"),
		udcRoot:   udcRoot,
		actions:   actions,
		sleep:     time.Sleep,
	}
}

func (b *ConfigFSBackend) Kind() Kind { return ConfigFs }

func (b *ConfigFSBackend) InUse() bool {
	_, err := os.Stat(b.root)
	return err == nil
}

func (b *ConfigFSBackend) InitValues(ids DeviceStrings) error {
	if !b.InUse() {
		return util.NewConfigAbsentError("configfs-backend", b.root)
	}
	if ids.IDVendor != "" {
		if err := b.SetVendorID(ids.IDVendor); err != nil {
			return err
		}
	}
	if ids.IDProduct != "" {
		if err := b.SetProductID(ids.IDProduct); err != nil {
			return err
		}
	}
	stringsDir := filepath.Join(b.root, "strings", "0x409")
	if err := os.MkdirAll(stringsDir, 0o755); err != nil && !os.IsExist(err) {
		return util.NewIoFailureError("mkdir", stringsDir, err)
	}
	writes := map[string]string{
		"manufacturer": ids.Manufacturer,
		"product":      ids.Product,
		"serialnumber": ids.Serial,
	}
	for name, value := range writes {
		if value == "" {
			continue
		}
		path := filepath.Join(stringsDir, name)
		if err := writeAttr(path, value); err != nil {
			return util.NewIoFailureError("write", path, err)
		}
	}
	return nil
}

func (b *ConfigFSBackend) SetChargingMode() error {
	if err := b.SetUDC(false); err != nil {
		return err
	}
	if err := b.unlinkAllFunctions(); err != nil {
		return err
	}
	return b.SetUDC(true)
}

func (b *ConfigFSBackend) SetProductID(id string) error {
	path := filepath.Join(b.root, "idProduct")
	if err := writeAttr(path, NormalizeID(id)); err != nil {
		return util.NewIoFailureError("write", path, err)
	}
	return nil
}

func (b *ConfigFSBackend) SetVendorID(id string) error {
	path := filepath.Join(b.root, "idVendor")
	if err := writeAttr(path, NormalizeID(id)); err != nil {
		return util.NewIoFailureError("write", path, err)
	}
	return nil
}

// SetFunction disables the UDC, unlinks every currently-enabled function
// symlink, registers and symlinks the requested function, and — for MTP —
// mounts FunctionFS and starts the userspace service, waiting MTPSettle
// before returning (the worker re-enables the UDC afterward).
func (b *ConfigFSBackend) SetFunction(fn string) error {
	if err := b.SetUDC(false); err != nil {
		return err
	}

	name := ConfigFSFunctionPath(fn)
	functionDir := filepath.Join(b.root, "functions", name)
	if err := os.MkdirAll(functionDir, 0o755); err != nil && !os.IsExist(err) {
		return util.NewIoFailureError("mkdir", functionDir, err)
	}

	if err := b.unlinkAllFunctions(); err != nil {
		return err
	}

	linkPath := filepath.Join(b.configDir, name)
	if err := unix.Symlink(functionDir, linkPath); err != nil && !os.IsExist(err) {
		return util.NewIoFailureError("symlink", linkPath, err)
	}

	if strings.HasPrefix(name, "ffs.") {
		if b.actions == nil {
			return util.NewIoFailureError("mount-mtp", linkPath, fmt.Errorf("no actions collaborator configured"))
		}
		if err := b.actions.MountMTP(); err != nil {
			return util.NewIoFailureError("mount", "/dev/mtp", err)
		}
		if err := b.actions.StartMTPService(); err != nil {
			return util.NewIoFailureError("start", "mtp-service", err)
		}
		b.sleep(MTPSettle)
	}
	return nil
}

// unlinkAllFunctions removes every symlink currently present under the
// active config directory. A function disable requires the entry to be a
// symlink; any other file type is a configuration error.
func (b *ConfigFSBackend) unlinkAllFunctions() error {
	entries, err := os.ReadDir(b.configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return util.NewIoFailureError("readdir", b.configDir, err)
	}
	for _, e := range entries {
		path := filepath.Join(b.configDir, e.Name())
		info, err := os.Lstat(path)
		if err != nil {
			return util.NewIoFailureError("lstat", path, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return util.NewIoFailureError("unlink", path, fmt.Errorf("not a symlink: configuration error"))
		}
		if strings.HasPrefix(e.Name(), "ffs.") {
			if b.actions != nil {
				_ = b.actions.StopMTPService()
			}
		}
		if err := os.Remove(path); err != nil {
			return util.NewIoFailureError("unlink", path, err)
		}
	}
	return nil
}

// SetUDC discovers the controller name once (the first non-dotfile
// symlink under /sys/class/udc) and writes it to enable, or the empty
// string to disable. A write is skipped when the current value already
// matches (read-before-write).
func (b *ConfigFSBackend) SetUDC(enable bool) error {
	if b.udcName == "" && !b.udcOnce {
		name, err := discoverUDC(b.udcRoot)
		if err != nil {
			return err
		}
		b.udcName = name
		b.udcOnce = true
	}

	want := ""
	if enable {
		want = b.udcName
	}

	path := filepath.Join(b.root, "UDC")
	current, err := readAttr(path)
	if err != nil && !os.IsNotExist(err) {
		return util.NewIoFailureError("read", path, err)
	}
	if current == want {
		return nil
	}
	if err := writeAttr(path, want); err != nil {
		return util.NewIoFailureError("write", path, err)
	}
	return nil
}

func discoverUDC(udcRoot string) (string, error) {
	entries, err := os.ReadDir(udcRoot)
	if err != nil {
		return "", util.NewConfigAbsentError("udc-class", udcRoot)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			return e.Name(), nil
		}
	}
	return "", util.NewConfigAbsentError("udc-class", udcRoot)
}

func writeAttr(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}

func readAttr(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
