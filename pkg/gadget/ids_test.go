package gadget

import "testing"

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0AFE", "0x0afe"},
		{"0x0AFE", "0x0afe"},
		{"0x0afe", "0x0afe"},
		{"  0afe  ", "0x0afe"},
		{"zzz", "zzz"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeID(c.in); got != c.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestConfigFSFunctionPath(t *testing.T) {
	cases := map[string]string{
		"mass_storage": "mass_storage.usb0",
		"rndis":        "rndis_bam.rndis",
		"mtp":          "ffs.mtp",
		"ffs":          "ffs.mtp",
		"custom.fn":    "custom.fn",
	}
	for in, want := range cases {
		if got := ConfigFSFunctionPath(in); got != want {
			t.Errorf("ConfigFSFunctionPath(%q) = %q, want %q", in, got, want)
		}
	}
}
