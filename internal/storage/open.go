package storage

import (
	"context"
	"fmt"

	"chunkstream/internal/config"
	"chunkstream/internal/domain"
)

// Open parses cfg.Destination and creates the matching store. The caller owns
// the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config) (domain.ObjectStore, Location, error) {
	loc, err := ParseDestination(cfg.Destination)
	if err != nil {
		return nil, Location{}, domain.ErrValidation("invalid destination: %v", err)
	}

	var store domain.ObjectStore
	switch loc.Scheme {
	case SchemeS3:
		store, err = NewS3Store(ctx, cfg, loc.Bucket)
	case SchemeGCS:
		store, err = NewGCSStore(ctx, cfg, loc.Bucket)
	case SchemeAzure:
		store, err = NewAzureStore(cfg, loc.Bucket)
	default:
		err = fmt.Errorf("unsupported scheme %q", loc.Scheme)
	}
	if err != nil {
		return nil, Location{}, fmt.Errorf("open %s: %w", loc, err)
	}
	return store, loc, nil
}
