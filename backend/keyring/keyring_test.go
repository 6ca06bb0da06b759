package keyring

import (
	"context"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"todolist/backend"
)

func TestBackendImplementsInterface(t *testing.T) {
	var _ backend.KeyValueStore = (*Backend)(nil)
}

func TestNewDefaults(t *testing.T) {
	b := New(NewMockKeyring(), "")
	if b.Service() != DefaultService {
		t.Errorf("Service() = %q, want %q", b.Service(), DefaultService)
	}
}

func TestMockKeyringRoundTrip(t *testing.T) {
	b := New(NewMockKeyring(), "todolist-test")
	ctx := context.Background()

	if _, found, err := b.Get(ctx, "myList"); err != nil || found {
		t.Fatalf("Get(missing) found = %v, err = %v", found, err)
	}

	if err := b.Set(ctx, "myList", []byte(`[]`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, found, err := b.Get(ctx, "myList")
	if err != nil || !found {
		t.Fatalf("Get = %q, %v, %v", got, found, err)
	}
	if string(got) != "[]" {
		t.Errorf("Get = %q, want %q", got, "[]")
	}
}

func TestServicesAreIsolated(t *testing.T) {
	ring := NewMockKeyring()
	a := New(ring, "a")
	b := New(ring, "b")
	ctx := context.Background()

	_ = a.Set(ctx, "myList", []byte("from a"))
	if _, found, _ := b.Get(ctx, "myList"); found {
		t.Error("service b sees key written by service a")
	}
}

// TestSystemKeyringWithMockProvider exercises the OS keyring code path using
// go-keyring's in-process provider.
func TestSystemKeyringWithMockProvider(t *testing.T) {
	gokeyring.MockInit()

	b := New(nil, "todolist-test")
	ctx := context.Background()

	if _, found, err := b.Get(ctx, "myList"); err != nil || found {
		t.Fatalf("Get(missing) found = %v, err = %v", found, err)
	}
	if err := b.Set(ctx, "myList", []byte(`[{"_id":"1","_item":"x","_checked":false}]`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, found, err := b.Get(ctx, "myList")
	if err != nil || !found {
		t.Fatalf("Get = %q, %v, %v", got, found, err)
	}
	if err := b.Set(ctx, "myList", []byte(`[]`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got, _, _ := b.Get(ctx, "myList"); string(got) != "[]" {
		t.Errorf("Get after overwrite = %q, want %q", got, "[]")
	}
}
