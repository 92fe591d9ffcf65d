// Package statestore persists serialized quantizer state.
//
// A Store keeps named snapshots, each holding one encoded record. Snapshot
// bytes are self-describing: a fixed header records the codec and the
// compression by name, so a snapshot written with one configuration can be
// opened by any store.
//
// Backends: in-memory (tests), local files (mmap reads), S3 and MinIO for
// shared storage. The S3 backend can pair with a DynamoDB catalog for
// atomic latest-version pointers when several writers publish calibrations
// of the same model.
package statestore
