// Package objectstore downloads photo binaries from S3-compatible storage.
package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type PhotoStoreConfig struct {
	Bucket       string `json:"bucket" yaml:"bucket"`
	KeyPrefix    string `json:"key_prefix" yaml:"key_prefix"`
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	UsePathStyle bool   `json:"use_path_style" yaml:"use_path_style"`
}

type PhotoStore struct {
	client *s3.Client
	config PhotoStoreConfig
}

// NewPhotoStore builds the S3 client from the default AWS config chain
// (env vars, shared config, instance role). Endpoint and path-style access
// can be overridden for S3-compatible stores.
func NewPhotoStore(ctx context.Context, storeConfig PhotoStoreConfig) (*PhotoStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: cfg.Credentials,
		HTTPClient:  cfg.HTTPClient,
	}
	if storeConfig.Endpoint != "" {
		opts.BaseEndpoint = aws.String(storeConfig.Endpoint)
	}
	opts.UsePathStyle = storeConfig.UsePathStyle

	return &PhotoStore{
		client: s3.New(opts),
		config: storeConfig,
	}, nil
}

// Download fetches the photo bytes for the given photo id.
func (ps *PhotoStore) Download(ctx context.Context, photoID string) ([]byte, error) {
	key := ps.config.KeyPrefix + photoID

	resp, err := ps.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ps.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading photo %s: %w", photoID, err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
