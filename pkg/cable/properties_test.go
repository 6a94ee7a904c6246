package cable

import "testing"

type fakeSource struct {
	props map[string]string
}

func (f *fakeSource) Refresh() error { return nil }

func (f *fakeSource) Property(key string) (string, bool) {
	v, ok := f.props[key]
	return v, ok
}

func TestClassifyTypeMapping(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		want State
	}{
		{"usb", "USB", PcConnected},
		{"usb_cdp", "USB_CDP", PcConnected},
		{"usb_dcp", "USB_DCP", ChargerConnected},
		{"usb_hvdcp", "USB_HVDCP", ChargerConnected},
		{"usb_hvdcp_3", "USB_HVDCP_3", ChargerConnected},
		{"usb_float", "USB_FLOAT", ChargerConnected},
		{"unknown", "Unknown", Disconnected},
		{"garbage", "SOMETHING_ELSE", Disconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{props: map[string]string{
				"PRESENT":   "1",
				"REAL_TYPE": tt.typ,
			}}
			got := classify(src, nil)
			if got != tt.want {
				t.Errorf("classify(%q) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestClassifyPresentPreferredOverOnline(t *testing.T) {
	src := &fakeSource{props: map[string]string{
		"PRESENT": "0",
		"ONLINE":  "1",
		"TYPE":    "USB",
	}}
	if got := classify(src, nil); got != Disconnected {
		t.Errorf("PRESENT=0 should win over ONLINE=1, got %v", got)
	}
}

func TestClassifyOnlineFallback(t *testing.T) {
	src := &fakeSource{props: map[string]string{
		"ONLINE": "1",
		"TYPE":   "USB_DCP",
	}}
	if got := classify(src, nil); got != ChargerConnected {
		t.Errorf("ONLINE fallback failed: got %v", got)
	}
}

func TestClassifyNoPresenceAttribute(t *testing.T) {
	var warned string
	src := &fakeSource{props: map[string]string{}}
	got := classify(src, func(msg string) { warned = msg })
	if got != Disconnected {
		t.Errorf("missing PRESENT/ONLINE should default to Disconnected, got %v", got)
	}
	if warned == "" {
		t.Error("expected a warning when PRESENT/ONLINE are both absent")
	}
}

func TestClassifyNoTypeAttributeIsOptimistic(t *testing.T) {
	var warned string
	src := &fakeSource{props: map[string]string{"PRESENT": "1"}}
	got := classify(src, func(msg string) { warned = msg })
	if got != PcConnected {
		t.Errorf("missing REAL_TYPE/TYPE should optimistically report PcConnected, got %v", got)
	}
	if warned == "" {
		t.Error("expected a warning when REAL_TYPE/TYPE are both absent")
	}
}

func TestClassifyRealTypePreferredOverType(t *testing.T) {
	src := &fakeSource{props: map[string]string{
		"PRESENT":   "1",
		"REAL_TYPE": "USB_DCP",
		"TYPE":      "USB",
	}}
	if got := classify(src, nil); got != ChargerConnected {
		t.Errorf("REAL_TYPE should win over TYPE, got %v", got)
	}
}
