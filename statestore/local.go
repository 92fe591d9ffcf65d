package statestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/quantgo/codec"
	"github.com/hupe1980/quantgo/internal/mmap"
	"github.com/hupe1980/quantgo/record"
)

const snapshotExt = ".qgs"

// LocalStoreOptions configures a LocalStore.
type LocalStoreOptions struct {
	// Codec used to encode snapshots. Defaults to codec.Default.
	Codec codec.Codec

	// Compression applied to snapshot payloads. Defaults to Zstd.
	Compression Compression

	// DirPerm is the permission used when creating the root directory.
	DirPerm os.FileMode

	// FilePerm is the permission used for snapshot files.
	FilePerm os.FileMode
}

// LocalStore persists snapshots as files under a root directory. Writes go
// through a temp file and rename so readers never observe a partial
// snapshot. Reads use mmap for local files.
type LocalStore struct {
	root string
	opts LocalStoreOptions
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a LocalStore rooted at the given directory, creating
// it if needed.
func NewLocalStore(root string, optFns ...func(o *LocalStoreOptions)) (*LocalStore, error) {
	opts := LocalStoreOptions{
		Codec:       codec.Default,
		Compression: Zstd{},
		DirPerm:     0o755,
		FilePerm:    0o644,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(root, opts.DirPerm); err != nil {
		return nil, fmt.Errorf("create root %q: %w", root, err)
	}

	return &LocalStore{root: root, opts: opts}, nil
}

// Save writes the record atomically under name.
func (s *LocalStore) Save(_ context.Context, name string, rec *record.Record) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	buf, err := EncodeSnapshot(rec, s.opts.Codec, s.opts.Compression)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*"+snapshotExt)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("save %q: %w", name, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("save %q: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("save %q: %w", name, err)
	}

	if err := os.Chmod(tmpName, s.opts.FilePerm); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("save %q: %w", name, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("save %q: %w", name, err)
	}

	return nil
}

// Load reads the snapshot stored under name.
func (s *LocalStore) Load(_ context.Context, name string) (*record.Record, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	m, err := mmap.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
		}

		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	defer m.Close()

	rec, err := DecodeSnapshot(m.Bytes())
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	return rec, nil
}

// Delete removes the snapshot stored under name, if present.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %q: %w", name, err)
	}

	return nil
}

// List returns all snapshot names with the given prefix, sorted.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}

		name := strings.TrimSuffix(e.Name(), snapshotExt)
		if strings.HasPrefix(name, ".tmp-") || !strings.HasPrefix(name, prefix) {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// path maps a snapshot name to a file path, rejecting names that would
// escape the root.
func (s *LocalStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}

	return filepath.Join(s.root, name+snapshotExt), nil
}
