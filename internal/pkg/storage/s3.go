package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/flowdeskhq/flowdesk/internal/pkg/env"
)

// Client wraps the S3 client for resource/document storage.
type Client struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	bucket   string
}

var (
	defaultClient *Client
	clientOnce    sync.Once
	clientErr     error
)

// GetClient returns the process-wide storage client, initializing it from
// the environment on first use.
func GetClient() (*Client, error) {
	clientOnce.Do(func() {
		defaultClient, clientErr = NewClientFromEnv()
	})
	return defaultClient, clientErr
}

// NewClientFromEnv builds a storage client for the configured bucket.
// Custom endpoints (MinIO and friends) force path-style addressing.
func NewClientFromEnv() (*Client, error) {
	region := env.GetEnv("S3_REGION", "us-east-1")
	endpoint := strings.TrimSpace(env.GetEnv("S3_ENDPOINT_URL", ""))
	bucket := strings.TrimSpace(env.GetEnv("S3_BUCKET", ""))
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not configured")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			env.GetEnv("S3_ACCESS_KEY_ID", ""),
			env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		presign:  s3.NewPresignClient(s3Client),
		bucket:   bucket,
	}

	if _, err := s3Client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", bucket, err)
	}

	log.Infof("[Storage] S3 client ready for bucket: %s", bucket)
	return client, nil
}

// Upload stores an object under key.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Download fetches an object's bytes (used by document analysis).
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PresignDownload returns a time-limited GET URL for an object, forcing a
// sensible download filename.
func (c *Client) PresignDownload(ctx context.Context, key, filename string, expiry time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(c.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", filename)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}
