package cable

import "strings"

// PropertySource reads power-supply uevent-style properties by their
// POWER_SUPPLY_* key (without the prefix, e.g. "PRESENT", "REAL_TYPE").
// Refresh re-reads the underlying device; Property looks up the value
// cached by the last Refresh. Implemented against
// /sys/class/power_supply/<device>/uevent in production (UeventSource);
// swapped for a fake in tests.
type PropertySource interface {
	Refresh() error
	Property(key string) (value string, ok bool)
}

// classify reads PRESENT/ONLINE and REAL_TYPE/TYPE off src and returns the
// raw (undebounced) cable state. warn, when
// non-nil, is called with a human-readable reason whenever the mapping
// falls back to a documented default.
func classify(src PropertySource, warn func(string)) State {
	present, havePresent := src.Property("PRESENT")
	online, haveOnline := src.Property("ONLINE")

	var connected bool
	switch {
	case havePresent:
		connected = present == "1"
	case haveOnline:
		connected = online == "1"
	default:
		if warn != nil {
			warn("neither POWER_SUPPLY_PRESENT nor POWER_SUPPLY_ONLINE present, assuming disconnected")
		}
		return Disconnected
	}

	if !connected {
		return Disconnected
	}

	realType, haveReal := src.Property("REAL_TYPE")
	supplyType, haveType := src.Property("TYPE")

	var typ string
	switch {
	case haveReal:
		typ = realType
	case haveType:
		typ = supplyType
	default:
		if warn != nil {
			warn("neither POWER_SUPPLY_REAL_TYPE nor POWER_SUPPLY_TYPE present, assuming PC-connected")
		}
		return PcConnected
	}

	return mapSupplyType(typ, warn)
}

func mapSupplyType(typ string, warn func(string)) State {
	switch strings.ToUpper(typ) {
	case "USB", "USB_CDP":
		return PcConnected
	case "USB_DCP", "USB_HVDCP", "USB_HVDCP_3":
		return ChargerConnected
	case "USB_FLOAT":
		if warn != nil {
			warn("USB_FLOAT reported as charger, may be misdetected PC connection")
		}
		return ChargerConnected
	case "UNKNOWN":
		return Disconnected
	default:
		if warn != nil {
			warn("unrecognized POWER_SUPPLY_TYPE " + typ + ", treating as disconnected")
		}
		return Disconnected
	}
}
