package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

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

	// UploadPartSize is the multipart upload part size in bytes.
	UploadPartSize int64

	// UploadConcurrency is the number of concurrent part uploads.
	UploadConcurrency int

	// UploadLimiter rate-limits Save calls, shielding the bucket from
	// calibration sweeps that publish thousands of layer snapshots at
	// once. Nil means unlimited.
	UploadLimiter *rate.Limiter
}

// Store persists snapshots as S3 objects under bucket/prefix.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	opts     StoreOptions
}

var _ statestore.Store = (*Store)(nil)

// NewStore creates an S3-backed store. The prefix is prepended to all keys
// (e.g. "quant/resnet50").
func NewStore(client Client, bucket, prefix string, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		Codec:             codec.Default,
		Compression:       statestore.Zstd{},
		UploadPartSize:    8 * 1024 * 1024,
		UploadConcurrency: 5,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = opts.UploadPartSize
		u.Concurrency = opts.UploadConcurrency
	})

	return &Store{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		opts:     opts,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name+snapshotExt)
}

// Save uploads the record under name.
func (s *Store) Save(ctx context.Context, name string, rec *record.Record) error {
	if s.opts.UploadLimiter != nil {
		if err := s.opts.UploadLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("save %q: %w", name, err)
		}
	}

	buf, err := statestore.EncodeSnapshot(rec, s.opts.Codec, s.opts.Compression)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(buf),
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	return nil
}

// Load downloads and decodes the snapshot stored under name.
func (s *Store) Load(ctx context.Context, name string) (*record.Record, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("load %q: %w", name, statestore.ErrNotFound)
		}

		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	rec, err := statestore.DecodeSnapshot(buf)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	return rec, nil
}

// Delete removes the snapshot stored under name. S3 DeleteObject is
// idempotent, so deleting a missing snapshot is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}

	return nil
}

// List returns all snapshot names with the given prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := path.Join(s.prefix, prefix)

	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, snapshotExt) {
				continue
			}

			name := strings.TrimSuffix(key, snapshotExt)
			if s.prefix != "" {
				name = strings.TrimPrefix(strings.TrimPrefix(name, s.prefix), "/")
			}

			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nf *types.NotFound

	return errors.As(err, &nf)
}
