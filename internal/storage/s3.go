package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"chunkstream/internal/config"
	"chunkstream/internal/domain"
)

// Compile-time checks.
var _ domain.ObjectStore = (*S3Store)(nil)
var _ S3API = (*s3.Client)(nil)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes chunks to an S3 (or S3-compatible) bucket.
type S3Store struct {
	client S3API
	bucket string
}

// NewS3Store creates a store for bucket. Static keys from cfg take precedence;
// otherwise the default AWS credential chain is used.
func NewS3Store(ctx context.Context, cfg *config.Config, bucket string) (*S3Store, error) {
	if cfg.S3.HasStaticCredentials() {
		opts := s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.S3.KeyID, cfg.S3.Secret, "",
			),
			UsePathStyle: cfg.S3.UsePathStyle,
		}
		if cfg.S3.Endpoint != "" {
			opts.BaseEndpoint = aws.String(endpointURL(cfg.S3.Endpoint))
		}
		return NewS3StoreWithClient(s3.New(opts), bucket), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.S3.Endpoint))
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})
	return NewS3StoreWithClient(client, bucket), nil
}

// NewS3StoreWithClient wraps an existing client. Used by tests with a fake S3API.
func NewS3StoreWithClient(client S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Preflight issues a HeadBucket call against the configured bucket.
func (s *S3Store) Preflight(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return &domain.PreflightError{
			Destination: s.Destination(),
			Reason:      classifyS3Error(err),
			Err:         err,
		}
	}
	return nil
}

// Put uploads obj with a single PutObject call.
func (s *S3Store) Put(ctx context.Context, obj domain.Object) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(obj.Body),
		ContentLength: aws.Int64(int64(len(obj.Body))),
		Metadata:      obj.Metadata,
	}
	if obj.ContentType != "" {
		in.ContentType = aws.String(obj.ContentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 PutObject %s/%s: %w", s.bucket, obj.Key, err)
	}
	return nil
}

// Close is a no-op: the S3 client holds no resources that need releasing.
func (s *S3Store) Close() error { return nil }

// Destination returns "s3://<bucket>".
func (s *S3Store) Destination() string { return SchemeS3 + "://" + s.bucket }

func classifyS3Error(err error) string {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return domain.ReasonBucketNotFound
	}
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return domain.ReasonBucketNotFound
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return domain.ReasonBucketNotFound
		case "Forbidden", "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return domain.ReasonAccessDenied
		}
	}
	return domain.ReasonUnreachable
}

// endpointURL adds an https:// scheme to a bare host, as Hetzner-style
// endpoints are usually configured without one.
func endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}
