package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"chunkstream/internal/config"
	"chunkstream/internal/domain"
)

var _ domain.ObjectStore = (*AzureStore)(nil)

// AzureStore writes chunks to an Azure Blob Storage container.
type AzureStore struct {
	client    *azblob.Client
	container string
}

// NewAzureStore creates a store for container. A connection string wins over
// shared-key account credentials.
func NewAzureStore(cfg *config.Config, container string) (*AzureStore, error) {
	if cfg.Azure.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.Azure.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create Azure blob client from connection string: %w", err)
		}
		return &AzureStore{client: client, container: container}, nil
	}

	if cfg.Azure.AccountName == "" || cfg.Azure.AccountKey == "" {
		return nil, domain.ErrValidation("azure account name and key are required")
	}
	sharedKeyCred, err := azblob.NewSharedKeyCredential(cfg.Azure.AccountName, cfg.Azure.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.Azure.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, sharedKeyCred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &AzureStore{client: client, container: container}, nil
}

// Preflight reads the container properties.
func (s *AzureStore) Preflight(ctx context.Context) error {
	_, err := s.client.ServiceClient().NewContainerClient(s.container).GetProperties(ctx, nil)
	if err != nil {
		return &domain.PreflightError{
			Destination: s.Destination(),
			Reason:      classifyAzureError(err),
			Err:         err,
		}
	}
	return nil
}

// Put uploads obj as a block blob.
func (s *AzureStore) Put(ctx context.Context, obj domain.Object) error {
	opts := &azblob.UploadBufferOptions{}
	if obj.ContentType != "" {
		ct := obj.ContentType
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &ct}
	}
	if len(obj.Metadata) > 0 {
		opts.Metadata = make(map[string]*string, len(obj.Metadata))
		for k, v := range obj.Metadata {
			opts.Metadata[k] = &v
		}
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, obj.Key, obj.Body, opts); err != nil {
		return fmt.Errorf("azure upload %s/%s: %w", s.container, obj.Key, err)
	}
	return nil
}

// Close is a no-op for the Azure client.
func (s *AzureStore) Close() error { return nil }

// Destination returns "az://<container>".
func (s *AzureStore) Destination() string { return SchemeAzure + "://" + s.container }

func classifyAzureError(err error) string {
	switch {
	case bloberror.HasCode(err, bloberror.ContainerNotFound, bloberror.ResourceNotFound):
		return domain.ReasonBucketNotFound
	case bloberror.HasCode(err, bloberror.AuthenticationFailed, bloberror.AuthorizationFailure,
		bloberror.AuthorizationPermissionMismatch, bloberror.InsufficientAccountPermissions):
		return domain.ReasonAccessDenied
	}
	return domain.ReasonUnreachable
}
