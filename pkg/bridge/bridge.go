package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/librescoot/usbmoded/pkg/controller"
	"github.com/librescoot/usbmoded/pkg/mode"
	"github.com/librescoot/usbmoded/pkg/util"
)

// DefaultKey is the Redis hash key the bridge reads and writes: one
// hash per subsystem, following this device's state-db convention.
const DefaultKey = "usb"

// DefaultPollInterval is how often Run re-reads the hash for an inbound
// request_mode or reload field.
const DefaultPollInterval = 250 * time.Millisecond

// Bridge publishes controller.Signals over a Redis hash and polls the
// same hash for inbound request_mode/reload fields.
type Bridge struct {
	client *redis.Client
	ctx    context.Context
	key    string

	controller   *controller.Controller
	checker      controller.PermissionChecker
	pollInterval time.Duration

	lastRequestMode string
	lastReload      string
}

// New creates a Bridge connected to addr (host:port), publishing to and
// polling the given hash key.
func New(addr, key string, ctrl *controller.Controller, checker controller.PermissionChecker) *Bridge {
	if key == "" {
		key = DefaultKey
	}
	return &Bridge{
		client:       redis.NewClient(&redis.Options{Addr: addr}),
		ctx:          context.Background(),
		key:          key,
		controller:   ctrl,
		checker:      checker,
		pollInterval: DefaultPollInterval,
	}
}

// Close releases the underlying Redis client.
func (b *Bridge) Close() error {
	return b.client.Close()
}

// SetController attaches the controller once it exists. The main loop
// constructs the bridge first (the controller needs it as a
// controller.Signals) and wires the controller back in before calling Run.
func (b *Bridge) SetController(ctrl *controller.Controller) {
	b.controller = ctrl
}

func (b *Bridge) set(field, value string) {
	if err := b.client.HSet(b.ctx, b.key, field, value).Err(); err != nil {
		util.WithOperation("bridge.publish").Warnf("HSET %s %s=%s failed: %v", b.key, field, value, err)
	}
}

// CurrentState implements controller.Signals.
func (b *Bridge) CurrentState(m mode.Name) { b.set("current_state", string(m)) }

// TargetState implements controller.Signals.
func (b *Bridge) TargetState(m mode.Name) { b.set("target_state", string(m)) }

// Event implements controller.Signals.
func (b *Bridge) Event(name string) { b.set("event", name) }

// PublishModeLists publishes the supported/hidden/whitelist mode-name
// lists, called once at startup and again after every config reload.
func (b *Bridge) PublishModeLists(modes *mode.List) {
	b.set("supported_modes", joinNames(modes.Names()))
	b.set("hidden_modes", joinNames(modes.Hidden))
	b.set("whitelist", joinNames(modes.Whitelist))
}

func joinNames(names []mode.Name) string {
	strs := make([]string, len(names))
	for i, n := range names {
		strs[i] = string(n)
	}
	return strings.Join(strs, ",")
}

// Run polls the hash for request_mode/request_uid and reload fields
// until stop closes. onReload is invoked once per distinct non-empty
// reload value, letting the main loop re-enter config loading and call
// rethink_charging_fallback.
func (b *Bridge) Run(stop <-chan struct{}, onReload func()) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.pollOnce(onReload)
		}
	}
}

func (b *Bridge) pollOnce(onReload func()) {
	vals, err := b.client.HGetAll(b.ctx, b.key).Result()
	if err != nil {
		util.WithOperation("bridge.poll").Warnf("HGETALL %s failed: %v", b.key, err)
		return
	}

	requestMode, requestUID, reload := diffInbound(vals, b.lastRequestMode, b.lastReload)

	if requestMode != "" {
		b.lastRequestMode = requestMode
		if err := b.controller.RequestMode(mode.Name(requestMode), mode.UserID(requestUID), b.checker); err != nil {
			util.WithOperation("bridge.request_mode").Warnf("request_mode(%s, %s) denied: %v", requestMode, requestUID, err)
		}
	}

	if reload != "" {
		b.lastReload = reload
		if onReload != nil {
			onReload()
		}
	}
}

// diffInbound extracts a not-yet-seen request_mode (with its request_uid)
// and reload value from the hash snapshot vals, returning empty strings
// for anything unchanged since lastRequestMode/lastReload. Pulled out of
// pollOnce so the edge-triggering logic is testable without a live
// Redis connection.
func diffInbound(vals map[string]string, lastRequestMode, lastReload string) (requestMode, requestUID, reload string) {
	if m, ok := vals["request_mode"]; ok && m != "" && m != lastRequestMode {
		requestMode = m
		requestUID = vals["request_uid"]
	}
	if r, ok := vals["reload"]; ok && r != "" && r != lastReload {
		reload = r
	}
	return requestMode, requestUID, reload
}
