// Package gadget implements the gadget backend capability set:
// the two hardware realizations of a USB gadget — ConfigFS and the legacy
// Android-sysfs mechanism — behind one narrow interface, selected once at
// startup by probing the filesystem.
package gadget

// Backend is the capability set the controller and worker drive a gadget
// through. Both realizations share it; callers never branch on kind except
// at startup probe time.
type Backend interface {
	// InitValues performs one-time setup: vendor/product/manufacturer/
	// product-string/serial strings from configuration. It does not
	// pre-register function endpoints; the ConfigFS backend creates a
	// function's directory when SetFunction first enacts it.
	// Idempotent; fails if the backend's root is absent.
	InitValues(ids DeviceStrings) error

	// SetChargingMode configures a minimal charging-only gadget and
	// enables the UDC.
	SetChargingMode() error

	// SetProductID and SetVendorID write a hex id, normalized to
	// "0xnnnn" (NormalizeID) before writing.
	SetProductID(id string) error
	SetVendorID(id string) error

	// SetFunction enacts a named function ("mass_storage", "rndis",
	// "mtp", ...).
	SetFunction(fn string) error

	// SetUDC enables or disables the UDC binding. Disabling detaches
	// the gadget from the bus.
	SetUDC(enable bool) error

	// InUse reports whether this backend's root is present on the
	// running kernel.
	InUse() bool

	// Kind identifies which realization this is.
	Kind() Kind
}

// Kind names a backend realization.
type Kind int

const (
	Unknown Kind = iota
	Android
	ConfigFs
)

func (k Kind) String() string {
	switch k {
	case Android:
		return "android"
	case ConfigFs:
		return "configfs"
	default:
		return "unknown"
	}
}

// DeviceStrings carries the USB string descriptors written by InitValues.
type DeviceStrings struct {
	Manufacturer string
	Product      string
	Serial       string
	IDVendor     string
	IDProduct    string
}
