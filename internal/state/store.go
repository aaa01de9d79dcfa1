package state

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

// BoltStore persists crawl sessions in a bolt database, one record per
// target host. Several interrupted scans can share the same file and be
// resumed independently.
type BoltStore struct {
	db     *bolt.DB
	path   string
	target string
}

// NewBoltStore opens or creates the session database at path and binds
// the store to one target's record.
func NewBoltStore(path, target string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions bucket: %w", err)
	}

	return &BoltStore{db: db, path: path, target: target}, nil
}

// Save writes the session record for this store's target.
func (s *BoltStore) Save(state *CrawlerState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return fmt.Errorf("sessions bucket not found")
		}
		return b.Put([]byte(s.target), data)
	})
}

// Load reads the session record for this store's target. A missing
// record returns nil without error.
func (s *BoltStore) Load() (*CrawlerState, error) {
	var state CrawlerState
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return fmt.Errorf("sessions bucket not found")
		}

		data := b.Get([]byte(s.target))
		if data == nil {
			return nil
		}

		found = true
		return json.Unmarshal(data, &state)
	})
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &state, nil
}

// Delete removes the session record for this store's target.
func (s *BoltStore) Delete() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(s.target))
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SessionInfo summarizes one stored session for listing.
type SessionInfo struct {
	Target        string
	StartedAt     time.Time
	UpdatedAt     time.Time
	Crawled       int
	Queued        int
	HTMLCount     int
	BackendCount  int
	FunctionCount int
}

// ListSessions reads the summaries of every session stored at path. A
// missing database yields an empty list.
func ListSessions(path string) ([]SessionInfo, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:  5 * time.Second,
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	defer db.Close()

	var sessions []SessionInfo
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var state CrawlerState
			if err := json.Unmarshal(v, &state); err != nil {
				return err
			}
			sessions = append(sessions, SessionInfo{
				Target:        state.Target,
				StartedAt:     state.StartedAt,
				UpdatedAt:     state.UpdatedAt,
				Crawled:       state.Crawled,
				Queued:        len(state.Queue),
				HTMLCount:     len(state.HTMLPages),
				BackendCount:  len(state.Backend),
				FunctionCount: len(state.Functions),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// FileStore persists a single session as a JSON file, optionally
// gzip-compressed.
type FileStore struct {
	path       string
	compressed bool
}

// NewFileStore creates a file-backed session store.
func NewFileStore(path string, compressed bool) *FileStore {
	return &FileStore{
		path:       path,
		compressed: compressed,
	}
}

// Save writes the session to the file.
func (s *FileStore) Save(state *CrawlerState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if s.compressed {
		return s.saveCompressed(data)
	}

	return os.WriteFile(s.path, data, 0644)
}

func (s *FileStore) saveCompressed(data []byte) error {
	file, err := os.Create(s.path + ".gz")
	if err != nil {
		return err
	}
	defer file.Close()

	gw := gzip.NewWriter(file)
	defer gw.Close()

	_, err = gw.Write(data)
	return err
}

// Load reads the session from the file. A missing file returns nil
// without error.
func (s *FileStore) Load() (*CrawlerState, error) {
	var data []byte
	var err error

	if s.compressed {
		data, err = s.loadCompressed()
	} else {
		data, err = os.ReadFile(s.path)
	}

	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var state CrawlerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

func (s *FileStore) loadCompressed() ([]byte, error) {
	file, err := os.Open(s.path + ".gz")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gr, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}

// Close is a no-op for FileStore.
func (s *FileStore) Close() error {
	return nil
}

// MemoryStore keeps the session in memory, for tests and for runs with
// persistence disabled.
type MemoryStore struct {
	state *CrawlerState
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores the state.
func (s *MemoryStore) Save(state *CrawlerState) error {
	s.state = state
	return nil
}

// Load returns the stored state.
func (s *MemoryStore) Load() (*CrawlerState, error) {
	return s.state, nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
