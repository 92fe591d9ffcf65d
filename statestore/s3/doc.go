// Package s3 provides an S3-backed statestore.Store plus an optional
// DynamoDB version catalog.
//
// Snapshots are immutable objects; overwriting a name replaces the object.
// S3 alone cannot compare-and-swap, so when several writers publish
// calibrations for the same model, pair the store with a VersionCatalog:
// writers upload snapshots under unique names and then commit a new catalog
// version with a conditional DynamoDB write. Readers resolve the latest
// committed snapshot name through the catalog.
package s3
