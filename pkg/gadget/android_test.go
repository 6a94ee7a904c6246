package gadget

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestAndroid(t *testing.T) (*AndroidBackend, string) {
	t.Helper()
	root := t.TempDir()
	for _, attr := range []string{"enable", "functions", "idProduct", "idVendor", "iManufacturer", "iProduct", "iSerial"} {
		if err := os.WriteFile(filepath.Join(root, attr), []byte(""), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return NewAndroidBackend(root), root
}

func TestAndroidSetFunctionSequence(t *testing.T) {
	b, root := newTestAndroid(t)
	if err := os.WriteFile(filepath.Join(root, "enable"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := b.SetFunction("rndis"); err != nil {
		t.Fatalf("SetFunction: %v", err)
	}
	if got := readFile(t, filepath.Join(root, "functions")); got != "rndis" {
		t.Fatalf("functions = %q, want rndis", got)
	}
	if got := readFile(t, filepath.Join(root, "enable")); got != "1" {
		t.Fatalf("enable = %q, want 1 (re-enabled)", got)
	}
}

func TestAndroidSetChargingModeClearsFunctions(t *testing.T) {
	b, root := newTestAndroid(t)
	if err := os.WriteFile(filepath.Join(root, "functions"), []byte("mtp"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := b.SetChargingMode(); err != nil {
		t.Fatalf("SetChargingMode: %v", err)
	}
	if got := readFile(t, filepath.Join(root, "functions")); got != "" {
		t.Fatalf("functions = %q, want empty", got)
	}
}

func TestAndroidCurrentFunctionsSplitsCSV(t *testing.T) {
	b, root := newTestAndroid(t)
	if err := os.WriteFile(filepath.Join(root, "functions"), []byte("mtp, adb"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := b.CurrentFunctions()
	if err != nil {
		t.Fatalf("CurrentFunctions: %v", err)
	}
	if len(got) != 2 || got[0] != "mtp" || got[1] != "adb" {
		t.Fatalf("CurrentFunctions = %v", got)
	}
}

func TestAndroidInUseReflectsRootPresence(t *testing.T) {
	b := NewAndroidBackend(filepath.Join(t.TempDir(), "nonexistent"))
	if b.InUse() {
		t.Fatal("expected InUse false for missing root")
	}
}
