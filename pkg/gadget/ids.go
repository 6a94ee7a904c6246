package gadget

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeID parses a product/vendor id given as "0xNNNN" or bare "NNNN"
// hex and renders it as lowercase "0xnnnn". On parse failure the original
// string passes through unchanged.
func NormalizeID(id string) string {
	trimmed := strings.TrimSpace(id)
	hex := strings.TrimPrefix(strings.ToLower(trimmed), "0x")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return trimmed
	}
	return fmt.Sprintf("0x%04x", v)
}

// functionPath maps a short function name to the backend-specific path or
// token used to enact it.
var configfsFunctionPaths = map[string]string{
	"mass_storage": "mass_storage.usb0",
	"rndis":        "rndis_bam.rndis",
	"mtp":          "ffs.mtp",
	"ffs":          "ffs.mtp",
}

// ConfigFSFunctionPath resolves a short function name to its ConfigFS
// functions/ subdirectory name. Unknown names pass through unchanged, so a
// mode descriptor can name a backend path directly.
func ConfigFSFunctionPath(fn string) string {
	if path, ok := configfsFunctionPaths[fn]; ok {
		return path
	}
	return fn
}
