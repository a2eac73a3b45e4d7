package boltkv

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/decl/decl/storage"
	"github.com/decl/decl/storage/storagetest"
)

func TestDB(t *testing.T) {
	storagetest.Run(t, storagetest.Config{
		New: func(t *testing.T) (storage.KVBackend, func()) {
			file := filepath.Join(t.TempDir(), "snapshots.db")
			db, err := NewWithFile(file)
			if err != nil {
				t.Fatal(err)
			}
			return db, func() {
				if err := db.Close(); err != nil {
					t.Errorf("close db: %v", err)
				}
			}
		},
	})
}

func TestDBReopen(t *testing.T) {
	file := filepath.Join(t.TempDir(), "snapshots.db")
	ctx := context.Background()

	db, err := NewWithFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put(ctx, "module/demo/one", []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = NewWithFile(file)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	got, err := db.Get(ctx, "module/demo/one")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if !bytes.Equal(got, []byte("persisted")) {
		t.Errorf("Get() after reopen = %q, want %q", got, "persisted")
	}
}

func Test_bucketKey(t *testing.T) {
	tests := []struct {
		input      string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{input: "", wantErr: true},
		{input: "/foo", wantErr: true},
		{input: "foo", wantErr: true},
		{input: "foo/", wantErr: true},
		{input: "foo/bar", wantBucket: "foo", wantKey: "bar"},
		{input: "module/demo/1f4Z0a", wantBucket: "module/demo", wantKey: "1f4Z0a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			bucket, key, err := bucketKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if string(bucket) != tt.wantBucket {
				t.Errorf("Bucket = %q, want = %q", string(bucket), tt.wantBucket)
			}
			if string(key) != tt.wantKey {
				t.Errorf("Key = %q, want = %q", string(key), tt.wantKey)
			}
		})
	}
}
