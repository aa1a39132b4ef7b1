package history

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketHistory = "history"

// BoltBackend stores entries in a bbolt bucket keyed by big-endian sequence
// numbers. Save rewrites the bucket in one transaction.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBoltBackend opens or creates the database at path.
func OpenBoltBackend(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketHistory))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history bucket: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Load() ([]string, error) {
	var entries []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketHistory)).ForEach(func(_, v []byte) error {
			entries = append(entries, string(v))
			return nil
		})
	})
	return entries, err
}

func (b *BoltBackend) Save(entries []string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketHistory)); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket([]byte(bucketHistory))
		if err != nil {
			return err
		}
		for _, e := range entries {
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			if err := bucket.Put(marshalSeq(seq), []byte(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
