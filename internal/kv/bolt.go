package kv

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("drive")

// Bolt is a bbolt-backed Store. Versions are persisted as an 8-byte
// big-endian prefix in front of each value.
type Bolt struct {
	db *bolt.DB
}

func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database, %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket, %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(key string) ([]byte, uint64, error) {
	var value []byte
	var version uint64

	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(boltBucket).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}

		version = binary.BigEndian.Uint64(raw[:8])
		value = make([]byte, len(raw)-8)
		copy(value, raw[8:])

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return value, version, nil
}

func (b *Bolt) Put(key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(boltBucket)

		version := uint64(0)
		if raw := bkt.Get([]byte(key)); raw != nil {
			version = binary.BigEndian.Uint64(raw[:8])
		}

		return bkt.Put([]byte(key), encode(value, version+1))
	})
}

func (b *Bolt) CompareAndSwap(key string, value []byte, expect uint64) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(boltBucket)

		current := uint64(0)
		if raw := bkt.Get([]byte(key)); raw != nil {
			current = binary.BigEndian.Uint64(raw[:8])
		}

		if current != expect {
			return ErrVersionMismatch
		}

		return bkt.Put([]byte(key), encode(value, current+1))
	})
}

func (b *Bolt) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

func (b *Bolt) Keys(prefix string) ([]string, error) {
	var keys []string

	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		p := []byte(prefix)

		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func encode(value []byte, version uint64) []byte {
	out := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(out[:8], version)
	copy(out[8:], value)
	return out
}
