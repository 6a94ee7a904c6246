package worker

import (
	"errors"
	"testing"
	"time"

	"github.com/librescoot/usbmoded/pkg/gadget"
	"github.com/librescoot/usbmoded/pkg/mode"
)

type fakeBackend struct {
	udcHistory   []bool
	productID    string
	vendorID     string
	function     string
	failFunction string
}

func (b *fakeBackend) InitValues(gadget.DeviceStrings) error { return nil }
func (b *fakeBackend) SetChargingMode() error                { return nil }
func (b *fakeBackend) InUse() bool                           { return true }
func (b *fakeBackend) Kind() gadget.Kind                     { return gadget.ConfigFs }

func (b *fakeBackend) SetProductID(id string) error { b.productID = id; return nil }
func (b *fakeBackend) SetVendorID(id string) error  { b.vendorID = id; return nil }

func (b *fakeBackend) SetFunction(fn string) error {
	if b.failFunction != "" && fn == b.failFunction {
		return errors.New("set_function failed")
	}
	b.function = fn
	return nil
}

func (b *fakeBackend) SetUDC(enable bool) error {
	b.udcHistory = append(b.udcHistory, enable)
	return nil
}

func testModes() *mode.List {
	return &mode.List{Modes: []*mode.Descriptor{
		{Name: "mtp_mode", Function: "mtp", IDProduct: "0x0001"},
		{Name: "rndis_mode", Function: "rndis"},
		{Name: mode.ChargingFallback, Function: ""},
	}}
}

func newTestWorker(backend *fakeBackend) (*Worker, chan mode.Name, chan mode.Name) {
	requests := make(chan mode.Name, 8)
	completions := make(chan mode.Name, 8)
	w := New(requests, completions, backend, testModes())
	return w, requests, completions
}

func TestWorkerProcessHappyPath(t *testing.T) {
	backend := &fakeBackend{}
	w, _, _ := newTestWorker(backend)

	result := w.process("mtp_mode")
	if result != "mtp_mode" {
		t.Fatalf("expected mtp_mode, got %v", result)
	}
	if backend.function != "mtp" {
		t.Fatalf("expected SetFunction(mtp), got %q", backend.function)
	}
	if backend.productID != "0x0001" {
		t.Fatalf("expected idProduct 0x0001, got %q", backend.productID)
	}
	if len(backend.udcHistory) != 2 || backend.udcHistory[0] != false || backend.udcHistory[1] != true {
		t.Fatalf("expected UDC down-then-up, got %v", backend.udcHistory)
	}
}

func TestWorkerFallsBackOnSetFunctionFailure(t *testing.T) {
	backend := &fakeBackend{failFunction: "mtp"}
	w, _, _ := newTestWorker(backend)

	result := w.process("mtp_mode")
	if result != mode.ChargingFallback {
		t.Fatalf("expected fallback to charging_fallback, got %v", result)
	}
}

func TestWorkerUnknownModeFallsBack(t *testing.T) {
	backend := &fakeBackend{}
	w, _, _ := newTestWorker(backend)

	result := w.process("nonexistent_mode")
	if result != mode.ChargingFallback {
		t.Fatalf("expected fallback for unconfigured mode, got %v", result)
	}
}

func TestWorkerCoalescesRequests(t *testing.T) {
	backend := &fakeBackend{}
	w, requests, completions := newTestWorker(backend)

	requests <- "mtp_mode"
	requests <- "rndis_mode"
	requests <- "rndis_mode"

	stop := make(chan struct{})
	go w.Run(stop)

	select {
	case result := <-completions:
		if result != "rndis_mode" {
			t.Fatalf("expected worker to coalesce to the most recent request, got %v", result)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
	}

	select {
	case extra := <-completions:
		t.Fatalf("expected exactly one completion, got an extra: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}

	close(stop)
}

func TestWorkerRunStopsOnSignal(t *testing.T) {
	backend := &fakeBackend{}
	w, _, _ := newTestWorker(backend)
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		w.Run(stop)
		close(done)
	}()
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after stop signal")
	}
}
