//go:build integration

package bridge_test

import (
	"testing"

	"github.com/go-redis/redis/v8"

	"github.com/librescoot/usbmoded/internal/testutil"
	"github.com/librescoot/usbmoded/pkg/bridge"
	"github.com/librescoot/usbmoded/pkg/mode"
)

func TestBridgePublishesModeLists(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	addr := testutil.RedisAddr()

	modes := &mode.List{
		Modes:     []*mode.Descriptor{{Name: "mtp_mode"}, {Name: "rndis_mode"}},
		Whitelist: []mode.Name{"mtp_mode"},
	}

	b := bridge.New(addr, "usbmoded_test", nil, bridge.NewChecker(modes, nil))
	defer b.Close()
	b.PublishModeLists(modes)

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	got, err := client.HGet(testutil.Context(t), "usbmoded_test", "supported_modes").Result()
	if err != nil {
		t.Fatalf("HGet failed: %v", err)
	}
	if got != "mtp_mode,rndis_mode" {
		t.Fatalf("supported_modes = %q", got)
	}
}
