package gadget

import (
	"os"
	"path/filepath"

	"github.com/librescoot/usbmoded/pkg/util"
)

const androidRoot = "/sys/class/android_usb/android0"

var androidFunctionNames = map[string]string{
	"mass_storage": "mass_storage",
	"rndis":        "rndis",
	"mtp":          "mtp",
}

// AndroidBackend drives the legacy android_usb gadget at
// /sys/class/android_usb/android0.
type AndroidBackend struct {
	root string
}

func NewAndroidBackend(root string) *AndroidBackend {
	return &AndroidBackend{root: root}
}

func (b *AndroidBackend) Kind() Kind { return Android }

func (b *AndroidBackend) InUse() bool {
	_, err := os.Stat(b.root)
	return err == nil
}

func (b *AndroidBackend) InitValues(ids DeviceStrings) error {
	if !b.InUse() {
		return util.NewConfigAbsentError("android-backend", b.root)
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
	writes := map[string]string{
		"iManufacturer": ids.Manufacturer,
		"iProduct":      ids.Product,
		"iSerial":       ids.Serial,
	}
	for attr, value := range writes {
		if value == "" {
			continue
		}
		if err := b.write(attr, value); err != nil {
			return err
		}
	}
	return nil
}

func (b *AndroidBackend) SetChargingMode() error {
	if err := b.write("enable", "0"); err != nil {
		return err
	}
	if err := b.write("functions", ""); err != nil {
		return err
	}
	return b.write("enable", "1")
}

func (b *AndroidBackend) SetProductID(id string) error {
	return b.write("idProduct", NormalizeID(id))
}

func (b *AndroidBackend) SetVendorID(id string) error {
	return b.write("idVendor", NormalizeID(id))
}

// SetFunction writes 0 to enable, the comma-separated function list to
// functions, then 1 to enable.
func (b *AndroidBackend) SetFunction(fn string) error {
	name, ok := androidFunctionNames[fn]
	if !ok {
		name = fn
	}
	if err := b.write("enable", "0"); err != nil {
		return err
	}
	if err := b.write("functions", name); err != nil {
		return err
	}
	return b.write("enable", "1")
}

// SetUDC writes 1 or 0 to "enable", which plays the UDC's role on the
// Android backend; SetFunction and SetChargingMode also toggle it.
func (b *AndroidBackend) SetUDC(enable bool) error {
	if enable {
		return b.write("enable", "1")
	}
	return b.write("enable", "0")
}

func (b *AndroidBackend) write(attr, value string) error {
	path := filepath.Join(b.root, attr)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return util.NewIoFailureError("write", path, err)
	}
	return nil
}

// CurrentFunctions reads the comma-separated functions attribute back.
func (b *AndroidBackend) CurrentFunctions() ([]string, error) {
	path := filepath.Join(b.root, "functions")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, util.NewIoFailureError("read", path, err)
	}
	return util.SplitCommaSeparated(string(data)), nil
}
