// Package storage implements the object stores a stream run writes to.
package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// Supported destination schemes.
const (
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
	SchemeAzure = "az"
)

// Location is a parsed destination: a bucket (or Azure container) and an
// optional key prefix inside it.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

func (l Location) String() string {
	if l.Prefix == "" {
		return fmt.Sprintf("%s://%s", l.Scheme, l.Bucket)
	}
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Prefix)
}

// ParseDestination parses a destination such as "s3://bucket/prefix",
// "gs://bucket", or "az://container". A value without a scheme is an S3 bucket name.
func ParseDestination(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty destination")
	}
	if !strings.Contains(raw, "://") {
		bucket, prefix, _ := strings.Cut(raw, "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("empty bucket in destination %q", raw)
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse destination %q: %w", raw, err)
	}
	switch u.Scheme {
	case SchemeS3, SchemeGCS, SchemeAzure:
	default:
		return Location{}, fmt.Errorf("unsupported destination scheme %q in %q: use s3://, gs:// or az://", u.Scheme, raw)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("empty bucket in destination %q", raw)
	}
	return Location{
		Scheme: u.Scheme,
		Bucket: u.Host,
		Prefix: strings.Trim(u.Path, "/"),
	}, nil
}
