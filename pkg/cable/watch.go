package cable

import (
	"github.com/fsnotify/fsnotify"

	"github.com/librescoot/usbmoded/pkg/util"
)

// Watcher drives an Observer's HandleEvent from filesystem change
// notifications on a power-supply device's uevent file, standing in for
// the kernel uevent stream the daemon would otherwise subscribe to via
// netlink. It does not parse uevent frames itself; each notification is
// only a trigger to re-read the sysfs attributes through the Observer's
// PropertySource.
type Watcher struct {
	fsw      *fsnotify.Watcher
	observer *Observer
	fatal    func(error)
}

// NewWatcher creates a Watcher observing ueventPath (typically
// .../power_supply/<name>/uevent) and driving observer on every write or
// create notification. fatal is invoked if the observer reports an
// unrecoverable error.
func NewWatcher(ueventPath string, observer *Observer, fatal func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, util.NewFatalError("cable watcher: creating fsnotify watcher", err)
	}
	if err := fsw.Add(ueventPath); err != nil {
		fsw.Close()
		return nil, util.NewFatalError("cable watcher: watching "+ueventPath, err)
	}
	return &Watcher{fsw: fsw, observer: observer, fatal: fatal}, nil
}

// Run processes filesystem events until stop closes. It is meant to run
// in its own goroutine for the life of the process.
func (w *Watcher) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.observer.HandleEvent(); err != nil {
				if w.fatal != nil {
					w.fatal(err)
				}
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			util.WithOperation("cable.watch").Warnf("fsnotify error: %v", err)
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
