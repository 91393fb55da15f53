package domain

import "context"

// Object is a serialized chunk ready to be written to a destination.
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStore is the destination side of a stream run.
// Implementations: storage.S3Store, storage.GCSStore, storage.AzureStore.
type ObjectStore interface {
	// Preflight verifies the bucket (or container) exists and is reachable.
	Preflight(ctx context.Context) error
	// Put writes obj as a new object.
	Put(ctx context.Context, obj Object) error
	// Close releases the underlying client.
	Close() error
	// Destination describes the target, e.g. "s3://bucket".
	Destination() string
}
