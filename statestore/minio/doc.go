// Package minio provides a statestore.Store for MinIO and other
// S3-compatible object stores.
package minio
