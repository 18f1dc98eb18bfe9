// Package blob hands out presigned upload URLs for ticket and falla
// attachments. Only metadata is stored by the portal itself.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrDisabled = errors.New("attachment storage is not configured")

// Storage issues presigned PUT URLs.
type Storage interface {
	PresignUpload(ctx context.Context, prefix, fileName, contentType string) (url, key string, err error)
}

type Options struct {
	Bucket      string
	Region      string
	EndpointURL string
	Expiry      time.Duration
}

type s3Storage struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// New returns an S3 backed Storage, or a disabled one when no bucket is set.
// A custom endpoint (LocalStack) switches to path-style addressing and
// static test credentials.
func New(ctx context.Context, opts Options) (Storage, error) {
	if opts.Bucket == "" {
		return disabled{}, nil
	}
	if opts.Expiry <= 0 {
		opts.Expiry = 5 * time.Minute
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.EndpointURL != "" {
		loadOpts = append(loadOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
			o.UsePathStyle = true
		}
	})

	return &s3Storage{
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		expiry:    opts.Expiry,
	}, nil
}

func (s *s3Storage) PresignUpload(ctx context.Context, prefix, fileName, contentType string) (string, string, error) {
	key := ObjectKey(prefix, fileName)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	request, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to presign put object: %w", err)
	}
	return request.URL, key, nil
}

// ObjectKey builds a collision-free key under prefix, keeping the base
// name of the uploaded file for readability.
func ObjectKey(prefix, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		name = "file"
	}
	return fmt.Sprintf("uploads/%s/%s_%s", strings.Trim(prefix, "/"), uuid.NewString(), name)
}

type disabled struct{}

func (disabled) PresignUpload(context.Context, string, string, string) (string, string, error) {
	return "", "", ErrDisabled
}
