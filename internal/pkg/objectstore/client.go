package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

// ProviderS3 names the object store in upstream errors.
const ProviderS3 = "s3"

// ErrDisabled is returned by NewClient when S3 is switched off.
var ErrDisabled = errors.New("S3 object store is disabled")

// Store is what the branding and report services need from object storage.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) (*PutResult, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// PutResult contains the result of a successful upload
type PutResult struct {
	BucketName  string
	ObjectKey   string
	Size        int64
	ContentType string
}

// Client wraps the S3 client for tenant assets and exports
type Client struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	config   *Config
}

// NewClient creates a new S3 client. It does not contact the endpoint.
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services want path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	return &Client{
		s3Client: s3Client,
		presign:  s3.NewPresignClient(s3Client),
		config:   cfg,
	}, nil
}

// EnsureBucket checks the bucket and creates it outside production.
func (c *Client) EnsureBucket(ctx context.Context, allowCreate bool) error {
	bucket := c.config.BucketName
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if !allowCreate {
		return fmt.Errorf("bucket %s not accessible: %w", bucket, err)
	}

	logger.L().Warn("bucket not found, creating it", zap.String("bucket", bucket))
	if _, err := c.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	logger.L().Info("bucket created", zap.String("bucket", bucket))
	return nil
}

// Put uploads body under key.
func (c *Client) Put(ctx context.Context, key, contentType string, body []byte) (*PutResult, error) {
	bucket := c.config.BucketName
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, apperrors.Upstream(ProviderS3, fmt.Errorf("put %s: %w", key, err))
	}

	logger.L().Debug("object uploaded",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("size", len(body)),
	)
	return &PutResult{
		BucketName:  bucket,
		ObjectKey:   key,
		Size:        int64(len(body)),
		ContentType: contentType,
	}, nil
}

// PresignGet returns a time-limited download URL. A zero ttl uses the configured one.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.config.PresignTTL
	}
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", apperrors.Upstream(ProviderS3, fmt.Errorf("presign %s: %w", key, err))
	}
	return req.URL, nil
}

// PublicURL returns the non-signed URL of key.
func (c *Client) PublicURL(key string) string {
	return c.config.PublicURL(key)
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.Upstream(ProviderS3, fmt.Errorf("delete %s: %w", key, err))
	}
	return nil
}
