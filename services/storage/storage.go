package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Client handles card-photo storage on any S3-compatible endpoint
type Client struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
}

// Config holds object storage configuration
type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// NewClient creates a new object storage client
func NewClient(cfg Config) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		),
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &Client{
		s3Client: s3.New(sess),
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
	}, nil
}

// NewClientFromEnv builds a client from the STORAGE_* environment variables
func NewClientFromEnv() (*Client, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}
	if getEnv.STORAGE_BUCKET == "" || getEnv.STORAGE_ENDPOINT == "" {
		return nil, fmt.Errorf("object storage is not configured")
	}

	return NewClient(Config{
		AccessKey: getEnv.STORAGE_ACCESS_KEY,
		SecretKey: getEnv.STORAGE_SECRET_KEY,
		Bucket:    getEnv.STORAGE_BUCKET,
		Region:    getEnv.STORAGE_REGION,
		Endpoint:  getEnv.STORAGE_ENDPOINT,
	})
}

// UploadFile uploads an object and returns its public URL
func (c *Client) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	_, err := c.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return fmt.Sprintf("https://%s.%s/%s", c.bucket, c.endpoint, key), nil
}

// UploadBytes uploads raw bytes and returns the public URL
func (c *Client) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return c.UploadFile(ctx, key, bytes.NewReader(data), contentType)
}

// DeleteFile removes an object
func (c *Client) DeleteFile(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
