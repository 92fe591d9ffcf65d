package s3

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quantgo/record"
	"github.com/hupe1980/quantgo/statestore"
)

// fakeS3Client is an in-memory bucket implementing Client.
type fakeS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3Client() *fakeS3Client {
	return &fakeS3Client{objects: make(map[string][]byte)}
}

func (c *fakeS3Client) PutObject(_ context.Context, params *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.objects[aws.ToString(params.Key)] = data

	return &awss3.PutObjectOutput{}, nil
}

func (c *fakeS3Client) GetObject(_ context.Context, params *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	c.mu.Lock()
	data, ok := c.objects[aws.ToString(params.Key)]
	c.mu.Unlock()

	if !ok {
		return nil, &types.NoSuchKey{}
	}

	return &awss3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (c *fakeS3Client) DeleteObject(_ context.Context, params *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.objects, aws.ToString(params.Key))

	return &awss3.DeleteObjectOutput{}, nil
}

func (c *fakeS3Client) ListObjectsV2(_ context.Context, params *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var contents []types.Object

	for key := range c.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			contents = append(contents, types.Object{Key: aws.String(key)})
		}
	}

	return &awss3.ListObjectsV2Output{Contents: contents}, nil
}

func (c *fakeS3Client) CreateMultipartUpload(_ context.Context, _ *awss3.CreateMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.CreateMultipartUploadOutput, error) {
	return nil, io.ErrUnexpectedEOF
}

func (c *fakeS3Client) UploadPart(_ context.Context, _ *awss3.UploadPartInput, _ ...func(*awss3.Options)) (*awss3.UploadPartOutput, error) {
	return nil, io.ErrUnexpectedEOF
}

func (c *fakeS3Client) CompleteMultipartUpload(_ context.Context, _ *awss3.CompleteMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.CompleteMultipartUploadOutput, error) {
	return nil, io.ErrUnexpectedEOF
}

func (c *fakeS3Client) AbortMultipartUpload(_ context.Context, _ *awss3.AbortMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.AbortMultipartUploadOutput, error) {
	return nil, io.ErrUnexpectedEOF
}

func testRecord() *record.Record {
	rec := record.New("quant_params")
	rec.SetFloat("scale", 2.0/15.0)
	rec.SetInt("zero_point", 0)
	rec.SetInt("offset", 0)

	return rec
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3Client()
	store := NewStore(client, "test-bucket", "quant/resnet50")

	rec := testRecord()
	require.NoError(t, store.Save(ctx, "conv1", rec))

	// The object carries the key prefix and snapshot extension.
	_, ok := client.objects["quant/resnet50/conv1.qgs"]
	require.True(t, ok)

	got, err := store.Load(ctx, "conv1")
	require.NoError(t, err)
	require.True(t, rec.Equal(got))
}

func TestStore_LoadNotFound(t *testing.T) {
	store := NewStore(newFakeS3Client(), "test-bucket", "quant")

	_, err := store.Load(context.Background(), "missing")
	require.ErrorIs(t, err, statestore.ErrNotFound)
}

func TestStore_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeS3Client(), "test-bucket", "quant")

	rec := testRecord()
	require.NoError(t, store.Save(ctx, "resnet50/conv1", rec))
	require.NoError(t, store.Save(ctx, "resnet50/fc", rec))
	require.NoError(t, store.Save(ctx, "bert/embeddings", rec))

	names, err := store.List(ctx, "resnet50/")
	require.NoError(t, err)
	require.Equal(t, []string{"resnet50/conv1", "resnet50/fc"}, names)

	require.NoError(t, store.Delete(ctx, "resnet50/conv1"))

	// Deleting a missing snapshot is not an error.
	require.NoError(t, store.Delete(ctx, "resnet50/conv1"))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"bert/embeddings", "resnet50/fc"}, names)
}

func TestStore_CustomCompression(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3Client()

	writer := NewStore(client, "test-bucket", "quant", func(o *StoreOptions) {
		o.Compression = statestore.LZ4{}
	})

	rec := testRecord()
	require.NoError(t, writer.Save(ctx, "conv1", rec))

	// Snapshots are self-describing, so a store with different defaults
	// reads them back fine.
	reader := NewStore(client, "test-bucket", "quant")

	got, err := reader.Load(ctx, "conv1")
	require.NoError(t, err)
	require.True(t, rec.Equal(got))
}
