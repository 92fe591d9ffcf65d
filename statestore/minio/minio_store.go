package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/quantgo/codec"
	"github.com/hupe1980/quantgo/record"
	"github.com/hupe1980/quantgo/statestore"
)

const snapshotExt = ".qgs"

// StoreOptions configures a Store.
type StoreOptions struct {
	// Codec used to encode snapshots. Defaults to codec.Default.
	Codec codec.Codec

	// Compression applied to snapshot payloads. Defaults to Zstd.
	Compression statestore.Compression
}

// Store persists snapshots as objects in a MinIO bucket under prefix.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
	opts   StoreOptions
}

var _ statestore.Store = (*Store)(nil)

// NewStore creates a MinIO-backed store. The prefix is prepended to all
// keys (e.g. "quant/resnet50").
func NewStore(client *minio.Client, bucket, prefix string, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		Codec:       codec.Default,
		Compression: statestore.Zstd{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		opts:   opts,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name+snapshotExt)
}

// Save uploads the record under name.
func (s *Store) Save(ctx context.Context, name string, rec *record.Record) error {
	buf, err := statestore.EncodeSnapshot(rec, s.opts.Codec, s.opts.Compression)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(buf), int64(len(buf)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	return nil
}

// Load downloads and decodes the snapshot stored under name.
func (s *Store) Load(ctx context.Context, name string) (*record.Record, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	defer obj.Close()

	buf, err := io.ReadAll(obj)
	if err != nil {
		// MinIO reports missing keys lazily, on first read.
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("load %q: %w", name, statestore.ErrNotFound)
		}

		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	rec, err := statestore.DecodeSnapshot(buf)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	return rec, nil
}

// Delete removes the snapshot stored under name, if present.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil
		}

		return fmt.Errorf("delete %q: %w", name, err)
	}

	return nil
}

// List returns all snapshot names with the given prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := path.Join(s.prefix, prefix)

	var names []string

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    keyPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list: %w", obj.Err)
		}

		if !strings.HasSuffix(obj.Key, snapshotExt) {
			continue
		}

		name := strings.TrimSuffix(obj.Key, snapshotExt)
		if s.prefix != "" {
			name = strings.TrimPrefix(strings.TrimPrefix(name, s.prefix), "/")
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}
