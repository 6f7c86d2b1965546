package dashboard

import (
	"context"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	boltBucket   = "dashboard"
	keyProducts  = "localProducts"
	prefPrefix   = "pref:"
	boltOpenWait = 1 * time.Second
)

// BoltStore is the default persistent backend: a single-file embedded
// key-value database holding the local product list under one key, the
// way the original dashboard kept a JSON array in browser storage.
type BoltStore struct {
	db  *bolt.DB
	log *zap.Logger
}

func OpenBoltStore(path string, log *zap.Logger) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltOpenWait})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db, log: log}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}

func (s *BoltStore) LoadAll(ctx context.Context) ([]Product, error) {
	var out []Product

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(boltBucket)).Get([]byte(keyProducts))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			// Fail open: corrupt data reads as no local products.
			if s.log != nil {
				s.log.Warn("discarding malformed local product list", zap.Error(err))
			}
			out = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) SaveAll(ctx context.Context, products []Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(keyProducts), raw)
	})
}

// mutateList runs a read-modify-write of the product list inside one
// write transaction, so readers never observe a partial state.
func (s *BoltStore) mutateList(fn func([]Product) []Product) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltBucket))

		var list []Product
		if raw := b.Get([]byte(keyProducts)); raw != nil {
			if err := json.Unmarshal(raw, &list); err != nil {
				if s.log != nil {
					s.log.Warn("discarding malformed local product list", zap.Error(err))
				}
				list = nil
			}
		}

		raw, err := json.Marshal(fn(list))
		if err != nil {
			return err
		}
		return b.Put([]byte(keyProducts), raw)
	})
}

func (s *BoltStore) Append(ctx context.Context, p Product) error {
	return s.mutateList(func(list []Product) []Product {
		return append(list, p)
	})
}

func (s *BoltStore) Remove(ctx context.Context, match func(Product) bool) (bool, error) {
	removed := false
	err := s.mutateList(func(list []Product) []Product {
		kept := list[:0]
		for _, p := range list {
			if match(p) {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		return kept
	})
	return removed, err
}

func (s *BoltStore) Replace(ctx context.Context, match func(Product) bool, updated Product) (bool, error) {
	replaced := false
	err := s.mutateList(func(list []Product) []Product {
		for i, p := range list {
			if match(p) {
				list[i] = updated
				replaced = true
				break
			}
		}
		return list
	})
	return replaced, err
}

func (s *BoltStore) LoadPref(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket([]byte(boltBucket)).Get([]byte(prefPrefix + key)); raw != nil {
			value = string(raw)
		}
		return nil
	})
	return value, err
}

func (s *BoltStore) SavePref(ctx context.Context, key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(prefPrefix+key), []byte(value))
	})
}
