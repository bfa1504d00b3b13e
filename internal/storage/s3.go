// Package storage wraps the S3 object store holding avatars and
// submission media.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	appconfig "twiin-backend/internal/config"

	"twiin-backend/internal/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MediaStore handles object uploads, downloads and deletes
type MediaStore struct {
	client    *s3.Client
	presign   *s3.PresignClient
	urlExpiry time.Duration
}

// NewMediaStore creates a media store from the AWS configuration
func NewMediaStore(ctx context.Context, cfg appconfig.AWSConfig) (*MediaStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaStore{
		client:    client,
		presign:   s3.NewPresignClient(client),
		urlExpiry: cfg.MediaURLExpiry,
	}, nil
}

// Upload writes an object to the bucket
func (s *MediaStore) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s/%s: %w", apperr.ErrStorage, bucket, key, err)
	}
	return nil
}

// DownloadURL returns a pre-signed GET URL for an object. Buckets are
// private; clients read media through these links.
func (s *MediaStore) DownloadURL(ctx context.Context, bucket, key string) (string, error) {
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.urlExpiry
	})
	if err != nil {
		return "", fmt.Errorf("%w: presign %s/%s: %w", apperr.ErrStorage, bucket, key, err)
	}
	return request.URL, nil
}

// Delete removes an object from the bucket
func (s *MediaStore) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %w", apperr.ErrStorage, bucket, key, err)
	}
	return nil
}
