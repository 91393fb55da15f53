package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"chunkstream/internal/config"
	"chunkstream/internal/domain"
)

var _ domain.ObjectStore = (*GCSStore)(nil)

// GCSStore writes chunks to a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store for bucket. A configured key file is used as a
// service account; otherwise application default credentials apply.
func NewGCSStore(ctx context.Context, cfg *config.Config, bucket string) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.GCS.KeyFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.GCS.KeyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Preflight fetches the bucket attributes.
func (s *GCSStore) Preflight(ctx context.Context) error {
	if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
		return &domain.PreflightError{
			Destination: s.Destination(),
			Reason:      classifyGCSError(err),
			Err:         err,
		}
	}
	return nil
}

// Put writes obj through a storage.Writer. The upload is only committed
// when Close succeeds.
func (s *GCSStore) Put(ctx context.Context, obj domain.Object) error {
	w := s.client.Bucket(s.bucket).Object(obj.Key).NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.Metadata = obj.Metadata
	if _, err := w.Write(obj.Body); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s/%s: %w", s.bucket, obj.Key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs commit %s/%s: %w", s.bucket, obj.Key, err)
	}
	return nil
}

// Close releases the GCS client.
func (s *GCSStore) Close() error { return s.client.Close() }

// Destination returns "gs://<bucket>".
func (s *GCSStore) Destination() string { return SchemeGCS + "://" + s.bucket }

func classifyGCSError(err error) string {
	if errors.Is(err, storage.ErrBucketNotExist) {
		return domain.ReasonBucketNotFound
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return domain.ReasonBucketNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.ReasonAccessDenied
		}
	}
	return domain.ReasonUnreachable
}
