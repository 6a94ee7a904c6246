// Package worker implements the single-consumer execution context that
// performs the gadget backend's blocking filesystem writes off the main
// loop.
package worker

import (
	"github.com/librescoot/usbmoded/pkg/gadget"
	"github.com/librescoot/usbmoded/pkg/mode"
	"github.com/librescoot/usbmoded/pkg/util"
)

// Worker is the dedicated goroutine driving the gadget backend. It
// receives ModeName requests on requests, coalesces them to the latest
// pending value before starting work, and reports
// completion on completions — a plain channel rather than a direct
// controller reference, breaking the cyclic-callback shape the original
// design had.
type Worker struct {
	requests    <-chan mode.Name
	completions chan<- mode.Name
	backend     gadget.Backend
	modes       *mode.List

	prev *mode.Descriptor
}

// New constructs a Worker. modes supplies the ModeDescriptor for each
// requested name; a request naming an unknown mode falls back to
// charging_fallback.
func New(requests <-chan mode.Name, completions chan<- mode.Name, backend gadget.Backend, modes *mode.List) *Worker {
	return &Worker{requests: requests, completions: completions, backend: backend, modes: modes}
}

// Run drains requests until stop closes or requests closes. It is meant
// to run in its own goroutine for the life of the process.
func (w *Worker) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case m, ok := <-w.requests:
			if !ok {
				return
			}
			m = w.drainLatest(m)
			result := w.process(m)
			select {
			case w.completions <- result:
			case <-stop:
				return
			}
		}
	}
}

// drainLatest collapses any requests already queued behind m to the most
// recent one, without blocking.
func (w *Worker) drainLatest(m mode.Name) mode.Name {
	for {
		select {
		case next := <-w.requests:
			m = next
		default:
			return m
		}
	}
}

// process sequences the backend calls for one mode switch and reports what was actually reached.
func (w *Worker) process(requested mode.Name) mode.Name {
	log := util.WithMode(string(requested))

	desc := w.modes.Get(requested)
	if desc == nil && requested != mode.ChargingFallback && requested != mode.Undefined {
		log.Warn("mode not configured, falling back to charging_fallback")
		return w.fallback(requested, nil)
	}

	if err := w.applySequence(desc); err != nil {
		log.Warnf("mode switch failed: %v", err)
		return w.fallback(requested, err)
	}

	w.prev = desc
	return requested
}

// applySequence runs the ordered backend calls for entering a mode. A
// nil desc (undefined/charging_fallback with no descriptor) still runs
// the UDC-down/reset/UDC-up bracket with no function enacted.
func (w *Worker) applySequence(desc *mode.Descriptor) error {
	if err := w.backend.SetUDC(false); err != nil {
		return err
	}

	if w.prev != nil {
		if err := writeSysfs(w.prev.SysfsPath, w.prev.SysfsResetValue); err != nil {
			return err
		}
	}

	if desc == nil {
		return w.backend.SetUDC(true)
	}

	if err := writeSysfs(desc.SysfsPath, desc.SysfsValue); err != nil {
		return err
	}
	for _, w2 := range desc.ExtraSysfs {
		if err := writeSysfs(w2.Path, w2.Value); err != nil {
			return err
		}
	}

	if desc.IDProduct != "" {
		if err := w.backend.SetProductID(desc.IDProduct); err != nil {
			return err
		}
	}
	if desc.IDVendorOverride != "" {
		if err := w.backend.SetVendorID(desc.IDVendorOverride); err != nil {
			return err
		}
	}

	if desc.Function != "" {
		if err := w.backend.SetFunction(desc.Function); err != nil {
			return err
		}
	}

	return w.backend.SetUDC(true)
}

// fallback attempts charging_fallback after a failed switch; if that also
// fails it leaves the UDC disabled and reports undefined.
func (w *Worker) fallback(requested mode.Name, cause error) mode.Name {
	fallbackDesc := w.modes.Get(mode.ChargingFallback)
	if err := w.applySequence(fallbackDesc); err != nil {
		util.WithOperation("worker.fallback").Errorf("charging_fallback also failed, leaving UDC disabled: %v", err)
		_ = w.backend.SetUDC(false)
		w.prev = nil
		return mode.Undefined
	}
	w.prev = fallbackDesc
	util.WithOperation("worker.fallback").Warn(util.NewTransitionFailedError(string(requested), string(mode.ChargingFallback), cause).Error())
	return mode.ChargingFallback
}
