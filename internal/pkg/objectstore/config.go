package objectstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/env"
)

// DefaultPresignTTL is how long export download links stay valid.
const DefaultPresignTTL = 15 * time.Minute

// Config holds the S3 connection settings
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services (MinIO, B2)
	PublicBaseURL   string // Optional CDN/base URL for public objects such as logos
	PresignTTL      time.Duration
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
		PresignTTL:      env.GetDuration("S3_PRESIGN_TTL", DefaultPresignTTL),
		Enabled:         env.GetBool("S3_ENABLED", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields when the store is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.AccessKeyID == "" {
		return errors.New("S3_ACCESS_KEY_ID is required when S3 is enabled")
	}
	if c.SecretAccessKey == "" {
		return errors.New("S3_SECRET_ACCESS_KEY is required when S3 is enabled")
	}
	if c.BucketName == "" {
		return errors.New("S3_BUCKET_NAME is required when S3 is enabled")
	}
	return nil
}

// LogoKey is the object key of a tenant logo.
func LogoKey(tenantID uint, version string) string {
	return fmt.Sprintf("tenants/%d/logo-%s.png", tenantID, version)
}

// ReportKey is the object key of an analytics export.
func ReportKey(tenantID uint, at time.Time, id string) string {
	return fmt.Sprintf("tenants/%d/reports/%04d/%02d/%s.xlsx", tenantID, at.Year(), int(at.Month()), id)
}

// PublicURL returns the URL a public object is served under.
func (c *Config) PublicURL(key string) string {
	if base := strings.TrimRight(c.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	if ep := strings.TrimRight(c.EndpointURL, "/"); ep != "" {
		return ep + "/" + c.BucketName + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.BucketName, c.Region, key)
}
