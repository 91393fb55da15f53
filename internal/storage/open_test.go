package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkstream/internal/config"
	"chunkstream/internal/domain"
)

func TestOpen(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	t.Setenv("STORAGE_EMULATOR_HOST", strings.TrimPrefix(srv.URL, "http://"))

	tests := []struct {
		name     string
		cfg      config.Config
		wantLoc  Location
		wantType domain.ObjectStore
	}{
		{
			name: "s3 with static keys",
			cfg: config.Config{
				Destination: "s3://landing/raw",
				Region:      "us-east-1",
				S3:          config.S3Config{KeyID: "id", Secret: "secret"},
			},
			wantLoc:  Location{Scheme: "s3", Bucket: "landing", Prefix: "raw"},
			wantType: &S3Store{},
		},
		{
			name:     "gcs against emulator",
			cfg:      config.Config{Destination: "gs://events"},
			wantLoc:  Location{Scheme: "gs", Bucket: "events"},
			wantType: &GCSStore{},
		},
		{
			name: "azure with shared key",
			cfg: config.Config{
				Destination: "az://landing",
				Azure:       config.AzureConfig{AccountName: "acct", AccountKey: azuriteKey},
			},
			wantLoc:  Location{Scheme: "az", Bucket: "landing"},
			wantType: &AzureStore{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, loc, err := Open(context.Background(), &tt.cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			assert.Equal(t, tt.wantLoc, loc)
			assert.IsType(t, tt.wantType, store)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Run("invalid destination", func(t *testing.T) {
		_, _, err := Open(context.Background(), &config.Config{Destination: "ftp://x"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})
	t.Run("azure without credentials", func(t *testing.T) {
		_, _, err := Open(context.Background(), &config.Config{Destination: "az://landing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open az://landing")
	})
}
