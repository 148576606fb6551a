package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store persists assets into an S3 bucket. URLs are built from the bucket's
// public base URL (a CDN or website endpoint) when configured, otherwise the
// virtual-hosted bucket endpoint is used.
type S3Store struct {
	client  s3API
	bucket  string
	baseURL string
}

// NewS3Store wires an S3 client against the given bucket.
func NewS3Store(client *s3.Client, bucket, baseURL string) (*S3Store, error) {
	bucket = strings.TrimSpace(bucket)
	if client == nil {
		return nil, errors.New("storage: s3 client is required")
	}
	if bucket == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	return &S3Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}, nil
}

// Put uploads the bytes under the cleaned key and returns the public URL.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleanKey),
		Body:   bytes.NewReader(data),
	}
	if ct := strings.TrimSpace(contentType); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("storage: put object %s: %w", cleanKey, err)
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + cleanKey, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, cleanKey), nil
}

var _ ImageStore = (*S3Store)(nil)
