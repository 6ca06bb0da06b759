package memory

import (
	"context"
	"testing"

	"todolist/backend"
)

func TestBackendImplementsInterface(t *testing.T) {
	var _ backend.KeyValueStore = (*Backend)(nil)
}

func TestGetMissingKey(t *testing.T) {
	b := New()
	v, found, err := b.Get(context.Background(), "myList")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if found || v != nil {
		t.Errorf("Get(missing) = %q, %v; want nil, false", v, found)
	}
}

func TestSetGetOverwrite(t *testing.T) {
	b := New()
	ctx := context.Background()

	if err := b.Set(ctx, "myList", []byte(`[]`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	v, found, err := b.Get(ctx, "myList")
	if err != nil || !found {
		t.Fatalf("Get = %q, %v, %v", v, found, err)
	}
	if string(v) != "[]" {
		t.Errorf("Get = %q, want %q", v, "[]")
	}

	if err := b.Set(ctx, "myList", []byte(`[{"_id":"1"}]`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if v, _, _ := b.Get(ctx, "myList"); string(v) != `[{"_id":"1"}]` {
		t.Errorf("Get after overwrite = %q", v)
	}
}

func TestValuesAreCopied(t *testing.T) {
	b := New()
	ctx := context.Background()

	in := []byte("abc")
	_ = b.Set(ctx, "k", in)
	in[0] = 'x'

	out, _, _ := b.Get(ctx, "k")
	if string(out) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", out)
	}
	out[1] = 'y'
	again, _, _ := b.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}
