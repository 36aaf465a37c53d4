package filestorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/yigit/crms/internal/pkg/logger"
)

// S3API is the part of the S3 client S3Storage uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage stores reports in an S3 bucket under a key prefix
type S3Storage struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Storage loads AWS credentials from the default chain
func NewS3Storage(ctx context.Context, bucket, region, prefix string) (*S3Storage, error) {
	opts := []func(*awscfg.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StorageWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3StorageWithClient wraps an existing client
func NewS3StorageWithClient(client S3API, bucket, prefix string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Storage) objectKey(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return k, nil
	}
	return path.Join(s.prefix, k), nil
}

// Save uploads data to the bucket
func (s *S3Storage) Save(ctx context.Context, key, contentType string, data []byte) (*FileInfo, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	objKey, _ := s.objectKey(k)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logger.Error().Err(err).Str("bucket", s.bucket).Str("key", objKey).Msg("Failed to upload report")
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	logger.Info().Str("bucket", s.bucket).Str("key", objKey).Int("size", len(data)).Msg("Report uploaded")
	return &FileInfo{
		Key:         k,
		Location:    fmt.Sprintf("s3://%s/%s", s.bucket, objKey),
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Open downloads the object under key
func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	return out.Body, nil
}

// Delete removes the object under key
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	var noKey *types.NoSuchKey
	if err != nil && !errors.As(err, &noKey) {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
