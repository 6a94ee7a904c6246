package bridge

import (
	"testing"

	"github.com/librescoot/usbmoded/pkg/mode"
)

func TestJoinNamesEmpty(t *testing.T) {
	if got := joinNames(nil); got != "" {
		t.Fatalf("joinNames(nil) = %q, want empty", got)
	}
}

func TestJoinNamesJoinsInOrder(t *testing.T) {
	names := namesOf("mtp_mode", "rndis_mode", "charging_fallback")
	if got := joinNames(names); got != "mtp_mode,rndis_mode,charging_fallback" {
		t.Fatalf("joinNames = %q", got)
	}
}

func TestDiffInboundNewRequestMode(t *testing.T) {
	vals := map[string]string{"request_mode": "mtp_mode", "request_uid": "alice"}
	m, uid, reload := diffInbound(vals, "", "")
	if m != "mtp_mode" || uid != "alice" {
		t.Fatalf("got mode=%q uid=%q", m, uid)
	}
	if reload != "" {
		t.Fatalf("unexpected reload signal: %q", reload)
	}
}

func TestDiffInboundUnchangedRequestModeIsIgnored(t *testing.T) {
	vals := map[string]string{"request_mode": "mtp_mode", "request_uid": "alice"}
	m, _, _ := diffInbound(vals, "mtp_mode", "")
	if m != "" {
		t.Fatalf("expected no new request for an already-seen value, got %q", m)
	}
}

func TestDiffInboundEmptyRequestModeIsIgnored(t *testing.T) {
	vals := map[string]string{"request_mode": ""}
	m, _, _ := diffInbound(vals, "mtp_mode", "")
	if m != "" {
		t.Fatalf("expected no request for a blank field, got %q", m)
	}
}

func TestDiffInboundReloadTriggersOnce(t *testing.T) {
	vals := map[string]string{"reload": "1"}
	_, _, reload := diffInbound(vals, "", "")
	if reload != "1" {
		t.Fatalf("expected reload=1, got %q", reload)
	}
	_, _, reload = diffInbound(vals, "", "1")
	if reload != "" {
		t.Fatalf("expected no repeat reload signal, got %q", reload)
	}
}

func namesOf(s ...string) []mode.Name {
	names := make([]mode.Name, len(s))
	for i, v := range s {
		names[i] = mode.Name(v)
	}
	return names
}
