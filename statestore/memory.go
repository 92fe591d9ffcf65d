package statestore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/quantgo/codec"
	"github.com/hupe1980/quantgo/record"
)

// MemoryStoreOptions configures a MemoryStore.
type MemoryStoreOptions struct {
	// Codec used to encode snapshots. Defaults to codec.Default.
	Codec codec.Codec

	// Compression applied to snapshot payloads. Defaults to None.
	Compression Compression
}

// MemoryStore is an in-memory Store. Snapshots survive only for the
// lifetime of the process; intended for tests and experimentation.
type MemoryStore struct {
	opts MemoryStoreOptions

	mu   sync.RWMutex
	data map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(optFns ...func(o *MemoryStoreOptions)) *MemoryStore {
	opts := MemoryStoreOptions{
		Codec:       codec.Default,
		Compression: None{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &MemoryStore{
		opts: opts,
		data: make(map[string][]byte),
	}
}

// Save stores the record under name.
func (s *MemoryStore) Save(_ context.Context, name string, rec *record.Record) error {
	buf, err := EncodeSnapshot(rec, s.opts.Codec, s.opts.Compression)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[name] = buf

	return nil
}

// Load returns the record stored under name.
func (s *MemoryStore) Load(_ context.Context, name string) (*record.Record, error) {
	s.mu.RLock()
	buf, ok := s.data[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}

	rec, err := DecodeSnapshot(buf)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	return rec, nil
}

// Delete removes the snapshot stored under name, if present.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, name)

	return nil
}

// List returns all snapshot names with the given prefix, sorted.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))

	for name := range s.data {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names, nil
}
