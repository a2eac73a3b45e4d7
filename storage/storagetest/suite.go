// Package storagetest holds a conformance suite for key-value backends.
package storagetest

import (
	"bytes"
	"context"
	"reflect"
	"runtime/debug"
	"testing"

	"github.com/go-stack/stack"
	"github.com/pkg/errors"

	"github.com/decl/decl/storage"
)

// Config provides configuration options for the test suite.
type Config struct {
	// New is used to instantiate a new backend.
	//
	// The returned done function is called on test completion, allowing
	// cleanup to be performed.
	New func(t *testing.T) (be storage.KVBackend, done func())
}

// Run executes the test suite for the given configuration.
func Run(t *testing.T, cfg Config) {
	run(t, "IO", cfg, keyIO)
	run(t, "Scan/Isolation", cfg, scanIsolation)
	run(t, "Scan/Empty", cfg, scanEmpty)
}

func run(t *testing.T, name string, cfg Config, testFunc func(*testing.T, Config)) {
	t.Run(name, func(t *testing.T) {
		defer checkPanic(t)
		testFunc(t, cfg)
	})
}

func keyIO(t *testing.T, cfg Config) {
	be, done := cfg.New(t)
	defer done()

	ctx := context.Background()

	// Get non-existing
	_, err := be.Get(ctx, "module/demo/one")
	if errors.Cause(err) != storage.ErrNotFound {
		t.Errorf("Get non-existing key; want error = %v, got = %v", storage.ErrNotFound, err)
	}

	// Create
	if err := be.Put(ctx, "module/demo/one", []byte("first")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	assertValue(t, be, "module/demo/one", []byte("first"))

	// Update
	if err := be.Put(ctx, "module/demo/one", []byte("updated")); err != nil {
		t.Fatalf("Put() update error = %v", err)
	}
	assertValue(t, be, "module/demo/one", []byte("updated"))

	// Create another
	if err := be.Put(ctx, "module/demo/two", []byte("second")); err != nil {
		t.Fatalf("Put() another error = %v", err)
	}

	// Delete non-existing
	if err := be.Delete(ctx, "module/demo/nonexisting"); err == nil {
		t.Error("Delete() non-existing returned nil error")
	}

	// Delete
	if err := be.Delete(ctx, "module/demo/one"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := be.Get(ctx, "module/demo/one"); errors.Cause(err) != storage.ErrNotFound {
		t.Errorf("Get deleted key; want error = %v, got = %v", storage.ErrNotFound, err)
	}
}

func scanIsolation(t *testing.T, cfg Config) {
	be, done := cfg.New(t)
	defer done()

	ctx := context.Background()

	entries := map[string][]byte{
		"module/app/1":   []byte("a1"),
		"module/app/2":   []byte("a2"),
		"module/other/1": []byte("o1"),
	}
	for k, v := range entries {
		if err := be.Put(ctx, k, v); err != nil {
			t.Fatalf("Put(%s) error = %v", k, err)
		}
	}

	got, err := be.Scan(ctx, "module/app")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := map[string][]byte{
		"module/app/1": []byte("a1"),
		"module/app/2": []byte("a2"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan results\nGot:  %#v\nWant: %#v", got, want)
	}

	got, err = be.Scan(ctx, "module/other")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Scan() got %d entries, want 1", len(got))
	}
}

func scanEmpty(t *testing.T, cfg Config) {
	be, done := cfg.New(t)
	defer done()

	got, err := be.Scan(context.Background(), "module/none")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Scan() got %d entries, want 0", len(got))
	}
}

func assertValue(t *testing.T, be storage.KVBackend, key string, want []byte) {
	t.Helper()
	got, err := be.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", key, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get(%s)\nGot:  %q\nWant: %q", key, got, want)
	}
}

func checkPanic(t *testing.T) {
	t.Helper()
	if err := recover(); err != nil {
		c := stack.Caller(2)
		debug.PrintStack()
		t.Fatalf("Panic: %k/%v: %v", c, c, err)
	}
}
