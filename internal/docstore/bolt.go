package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// scopeBucketPrefix names the root bucket that holds one scope's collections.
const scopeBucketPrefix = "user_data_"

// BoltBackend stores documents in a bbolt file. Each scope gets a root
// bucket and each collection a nested bucket keyed by document id.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) a bbolt database at path.
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

func scopeBucket(scope string) []byte {
	return []byte(scopeBucketPrefix + scope)
}

// bucket returns the collection bucket or nil if it was never written.
func bucket(tx *bolt.Tx, scope, collection string) *bolt.Bucket {
	root := tx.Bucket(scopeBucket(scope))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(collection))
}

func (b *BoltBackend) Put(ctx context.Context, scope, collection, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(scopeBucket(scope))
		if err != nil {
			return fmt.Errorf("creating scope bucket: %w", err)
		}
		bkt, err := root.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("creating collection bucket %s: %w", collection, err)
		}
		return bkt.Put([]byte(id), data)
	})
}

func (b *BoltBackend) Get(ctx context.Context, scope, collection, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := bucket(tx, scope, collection)
		if bkt == nil {
			return ErrNotFound
		}
		data := bkt.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		// Values are only valid during the transaction.
		out = clone(data)
		return nil
	})
	return out, err
}

func (b *BoltBackend) Delete(ctx context.Context, scope, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := bucket(tx, scope, collection)
		if bkt == nil || bkt.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bkt.Delete([]byte(id))
	})
}

func (b *BoltBackend) Scan(ctx context.Context, scope, collection string, fn func(id string, data []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var ids []string
	var values [][]byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := bucket(tx, scope, collection)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			ids = append(ids, string(k))
			values = append(values, clone(v))
			return nil
		})
	})
	if err != nil {
		return err
	}

	for i, id := range ids {
		if err := fn(id, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (b *BoltBackend) Update(ctx context.Context, scope, collection, id string, fn func(current []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := bucket(tx, scope, collection)
		if bkt == nil {
			return ErrNotFound
		}
		cur := bkt.Get([]byte(id))
		if cur == nil {
			return ErrNotFound
		}
		next, err := fn(clone(cur))
		if err != nil {
			return err
		}
		return bkt.Put([]byte(id), next)
	})
}

// Close closes the database file.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
