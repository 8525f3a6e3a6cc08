package docstore

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backend persists raw JSON documents keyed by scope, collection and id.
// Implementations must return ErrNotFound for missing documents and must
// run Update as a single atomic read-modify-write.
type Backend interface {
	Put(ctx context.Context, scope, collection, id string, data []byte) error
	Get(ctx context.Context, scope, collection, id string) ([]byte, error)
	Delete(ctx context.Context, scope, collection, id string) error
	// Scan calls fn for every document of a collection in id order.
	Scan(ctx context.Context, scope, collection string, fn func(id string, data []byte) error) error
	Update(ctx context.Context, scope, collection, id string, fn func(current []byte) ([]byte, error)) error
	Close() error
}

// Open creates the named backend. path is ignored by the memory backend.
func Open(backend, path string) (Backend, error) {
	switch backend {
	case BackendBolt, "":
		return OpenBolt(path)
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
