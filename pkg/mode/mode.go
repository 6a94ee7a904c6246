// Package mode defines the mode vocabulary shared by the cable observer,
// mode selector, mode controller, and gadget backend: the canonical name
// type, the small set of reserved "magic" names, and the immutable
// descriptor that tells the gadget backend how to realize one mode.
package mode

// Name is a canonical mode identifier. The set is open — any descriptor
// loaded from configuration introduces a new name — but a handful of
// names are reserved and given meaning by this package.
type Name string

// Magic names reserved by the core.
const (
	// Undefined means no cable / no decision yet.
	Undefined Name = "undefined"
	// Busy means a transition is in progress. External-only; never a
	// valid internal or target value.
	Busy Name = "busy"
	// Ask means policy defers the decision to a UI dialog.
	Ask Name = "ask"
	// Charger means a dedicated charger is attached.
	Charger Name = "charger"
	// ChargingFallback means the cable is PC-like but the user or
	// device-lock state forbids exposing data functions.
	ChargingFallback Name = "charging_fallback"
)

// IsMagic reports whether n is one of the reserved names above.
func (n Name) IsMagic() bool {
	switch n {
	case Undefined, Busy, Ask, Charger, ChargingFallback:
		return true
	default:
		return false
	}
}

func (n Name) String() string { return string(n) }

// UserID identifies the session/user a mode decision is made for.
// UnknownUser is the zero value, used before any session is established
// or when the cable is not attributable to a specific user.
type UserID string

// UnknownUser is the sentinel UserID meaning "no session".
const UnknownUser UserID = ""

// SysfsWrite is one ordered (path, value) write applied while entering or
// leaving a mode, used for both the android_extra_sysfs_* series and the
// generic sysfs_path/sysfs_value/sysfs_reset_value pair.
type SysfsWrite struct {
	Path  string
	Value string
}

// Descriptor is the immutable record describing how to realize one mode
// on the hardware. The core treats it as opaque aside from Name,
// Function, IDProduct, IDVendorOverride, and the ordered sysfs plan it
// carries — everything
// else is read by out-of-scope collaborators (appsync, DHCP server, NAT)
// further downstream.
type Descriptor struct {
	Name Name

	// Module is the kernel module required for this mode, if any.
	Module string

	// Function is the backend function name to enact (e.g.
	// "mass_storage", "rndis", "mtp"). Empty for modes that don't
	// enable a data function (e.g. the charging modes).
	Function string

	// SysfsPath/SysfsValue/SysfsResetValue describe a single attribute
	// write applied on entry, and the value to restore it to when
	// leaving this mode for another.
	SysfsPath      string
	SysfsValue     string
	SysfsResetValue string

	// ExtraSysfs holds the ordered "android_extra_sysfs_*" write pairs
	// (up to four), applied in order after SysfsPath/Value.
	ExtraSysfs []SysfsWrite

	// SoftconnectPath is the path written to trigger/clear USB
	// soft-disconnect, if the mode requires it.
	SoftconnectPath string

	// IDProduct optionally overrides the device's default idProduct
	// while this mode is active.
	IDProduct string

	// IDVendorOverride optionally overrides the device's idVendor.
	IDVendorOverride string

	// Network, Appsync, MassStorage, NAT, DHCPServer are carried through
	// unexamined by the core for out-of-scope collaborators (network
	// bring-up, appsync hooks) to read off the published descriptor.
	Network     bool
	Appsync     bool
	MassStorage bool
	NAT         bool
	DHCPServer  bool
}

// List is the ordered set of mode descriptors known to the daemon plus
// the subsets the event bridge (F) needs for its supported/hidden/
// whitelist signals.
type List struct {
	// Modes holds every configured mode, in the order loaded.
	Modes []*Descriptor
	// Hidden is the subset of mode names not advertised as
	// user-selectable (still reachable internally, e.g. by diagnostics).
	Hidden []Name
	// Whitelist is the subset of mode names a non-superuser may
	// request directly.
	Whitelist []Name
	// Diagnostic is the ordered diagnostic mode list consulted by the
	// selector when the diagnostic flag is set.
	Diagnostic []Name
}

// Get returns the descriptor for name, or nil if unknown.
func (l *List) Get(name Name) *Descriptor {
	if l == nil {
		return nil
	}
	for _, d := range l.Modes {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Names returns every configured mode name, in order.
func (l *List) Names() []Name {
	if l == nil {
		return nil
	}
	names := make([]Name, 0, len(l.Modes))
	for _, d := range l.Modes {
		names = append(names, d.Name)
	}
	return names
}

// IsHidden reports whether name is in the hidden-modes list.
func (l *List) IsHidden(name Name) bool {
	for _, n := range l.Hidden {
		if n == name {
			return true
		}
	}
	return false
}

// IsWhitelisted reports whether name is in the whitelist.
func (l *List) IsWhitelisted(name Name) bool {
	for _, n := range l.Whitelist {
		if n == name {
			return true
		}
	}
	return false
}
