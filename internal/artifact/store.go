// Package artifact persists the trained classifier between runs.
package artifact

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"spendlens/internal/ml"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

// ErrNotFound means no artifact has been saved yet.
var ErrNotFound = errors.New("model artifact not found")

var (
	bucketName = []byte("classifier")
	currentKey = []byte("current")
)

// Store loads and saves the current artifact.
type Store interface {
	Load(ctx context.Context) (*ml.Artifact, error)
	Save(ctx context.Context, a *ml.Artifact) error
	Delete(ctx context.Context) error
}

// BoltStore keeps the artifact in a single-file BoltDB database.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens (creating if needed) the database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create artifact directory %s", dir)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open artifact db %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create artifact bucket")
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(ctx context.Context) (*ml.Artifact, error) {
	var data []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get(currentKey); v != nil {
			// v is only valid inside the transaction.
			data = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "read artifact")
	}
	if data == nil {
		return nil, ErrNotFound
	}
	a, err := ml.DecodeArtifact(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode artifact")
	}
	return a, nil
}

func (s *BoltStore) Save(ctx context.Context, a *ml.Artifact) error {
	data, err := a.Encode()
	if err != nil {
		return errors.Wrap(err, "encode artifact")
	}
	return errors.Wrap(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(currentKey, data)
	}), "write artifact")
}

func (s *BoltStore) Delete(ctx context.Context) error {
	return errors.Wrap(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(currentKey)
	}), "delete artifact")
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// MemoryStore keeps the artifact encoded in memory. Useful in tests and
// for one-shot CLI runs.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(ctx context.Context) (*ml.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return ml.DecodeArtifact(m.data)
}

func (m *MemoryStore) Save(ctx context.Context, a *ml.Artifact) error {
	data, err := a.Encode()
	if err != nil {
		return errors.WithStack(err)
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// Corrupt replaces the stored bytes, for exercising recovery paths.
func (m *MemoryStore) Corrupt(data []byte) {
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
}
