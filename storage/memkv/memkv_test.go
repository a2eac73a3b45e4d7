package memkv

import (
	"testing"

	"github.com/decl/decl/storage"
	"github.com/decl/decl/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, storagetest.Config{
		New: func(*testing.T) (storage.KVBackend, func()) {
			return &Store{}, func() {}
		},
	})
}
