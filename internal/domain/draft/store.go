package draft

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("draft not found")
	ErrConflict = errors.New("draft version conflict")
)

// Record is the persisted document plus its concurrency version.
type Record struct {
	Key       string
	Doc       json.RawMessage
	Version   int64
	UpdatedAt time.Time
}

// Store persists raw draft documents. Put with expectVersion 0 creates the
// record; any other value must match the current version. A mismatch returns
// ErrConflict and the stored record is untouched.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, key string, doc []byte, expectVersion int64) (Record, error)
	Delete(ctx context.Context, key string) error
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, doc []byte, expectVersion int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.records[key]
	switch {
	case !exists && expectVersion != 0:
		return Record{}, ErrConflict
	case exists && current.Version != expectVersion:
		return Record{}, ErrConflict
	}
	rec := Record{
		Key:       key,
		Doc:       append(json.RawMessage(nil), doc...),
		Version:   expectVersion + 1,
		UpdatedAt: s.now().UTC(),
	}
	s.records[key] = rec
	return copyRecord(rec), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *MemoryStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, rec := range s.records {
		if rec.UpdatedAt.Before(cutoff) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

func copyRecord(rec Record) Record {
	rec.Doc = append(json.RawMessage(nil), rec.Doc...)
	return rec
}
