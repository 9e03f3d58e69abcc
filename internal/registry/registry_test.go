package registry

import (
	"testing"

	"github.com/awylder/switchsync/internal/device"
	"github.com/awylder/switchsync/internal/testutil"
	"go.uber.org/zap"
)

func testSession(host string) *device.Session {
	return device.NewSession(host, device.Credentials{Username: "admin", Password: "admin"}, zap.NewNop())
}

func newTestRegistry() *Registry {
	return New(testutil.Logger())
}

func TestAdd(t *testing.T) {
	reg := newTestRegistry()

	d, err := reg.Add("closet-switch", testSession("192.168.0.2"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if d.Host != "192.168.0.2" {
		t.Errorf("Host = %q, want %q", d.Host, "192.168.0.2")
	}

	// Duplicate host should fail.
	if _, err := reg.Add("other", testSession("192.168.0.2")); err == nil {
		t.Fatal("Add() expected error for duplicate host, got nil")
	}
}

func TestGet(t *testing.T) {
	reg := newTestRegistry()
	reg.Add("a", testSession("10.0.0.1"))

	if _, ok := reg.Get("10.0.0.1"); !ok {
		t.Error("Get('10.0.0.1') returned false, want true")
	}
	if _, ok := reg.Get("10.0.0.9"); ok {
		t.Error("Get('10.0.0.9') returned true, want false")
	}
}

func TestAllSorted(t *testing.T) {
	reg := newTestRegistry()
	reg.Add("b", testSession("10.0.0.2"))
	reg.Add("a", testSession("10.0.0.1"))
	reg.Add("c", testSession("10.0.0.3"))

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d devices, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Host >= all[i].Host {
			t.Errorf("All() not sorted: %q before %q", all[i-1].Host, all[i].Host)
		}
	}
}

func TestRemove(t *testing.T) {
	reg := newTestRegistry()
	reg.Add("a", testSession("10.0.0.1"))

	if !reg.Remove("10.0.0.1") {
		t.Error("Remove() = false, want true")
	}
	if _, ok := reg.Get("10.0.0.1"); ok {
		t.Error("device still present after Remove")
	}
	if reg.Remove("10.0.0.1") {
		t.Error("Remove() of absent device = true, want false")
	}
}
