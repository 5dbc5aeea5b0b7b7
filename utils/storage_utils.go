package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// StorageConfig points at an S3-compatible bucket.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	// PublicURL prefixes returned object links. Defaults to endpoint/bucket.
	PublicURL string `yaml:"public_url"`
}

// Enabled reports whether a bucket is configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// Uploader stores files in the configured bucket.
type Uploader struct {
	client    *s3.S3
	bucket    string
	publicURL string
}

func NewUploader(cfg StorageConfig) (*Uploader, error) {
	if !cfg.Enabled() {
		return nil, errors.New("storage bucket is not configured")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg := &aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("storage session: %w", err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &Uploader{client: s3.New(sess), bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// Upload writes data under folder/fileName and returns its URL.
func (u *Uploader) Upload(ctx context.Context, data []byte, folder, fileName, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s", strings.Trim(folder, "/"), fileName)

	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to storage: %w", err)
	}

	return u.publicURL + "/" + key, nil
}
