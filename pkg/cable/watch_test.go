package cable

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type countingSource struct {
	refreshes int
	online    bool
}

func (s *countingSource) Refresh() error {
	s.refreshes++
	return nil
}

func (s *countingSource) Property(key string) (string, bool) {
	switch key {
	case "PRESENT":
		if s.online {
			return "1", true
		}
		return "0", true
	case "REAL_TYPE", "TYPE":
		return "USB", true
	}
	return "", false
}

func TestWatcherTriggersHandleEventOnWrite(t *testing.T) {
	dir := t.TempDir()
	ueventPath := filepath.Join(dir, "uevent")
	if err := os.WriteFile(ueventPath, []byte("POWER_SUPPLY_PRESENT=0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := &countingSource{}
	observer := New(src, func() (PropertySource, error) { return src, nil }, nil)

	var fatalErr error
	w, err := NewWatcher(ueventPath, observer, func(e error) { fatalErr = e })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	stop := make(chan struct{})
	go w.Run(stop)
	defer close(stop)

	before := src.refreshes
	if err := os.WriteFile(ueventPath, []byte("POWER_SUPPLY_PRESENT=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if src.refreshes > before {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if src.refreshes <= before {
		t.Fatalf("expected HandleEvent to run after a write, refreshes stayed at %d", src.refreshes)
	}
	if fatalErr != nil {
		t.Fatalf("unexpected fatal error: %v", fatalErr)
	}
}
