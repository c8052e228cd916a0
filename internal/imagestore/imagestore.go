// Package imagestore persists the photo a piece of equipment was recognized
// from and returns a reference that can be stored with the record.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/claude/fitscan/internal/config"
	"github.com/claude/fitscan/internal/datauri"
)

// Store saves an image for a user and returns its reference.
type Store interface {
	Put(ctx context.Context, userID string, img datauri.DataURI) (string, error)
}

// PutObjectAPI is the subset of *s3.Client used by S3.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads images to a bucket and returns their public URL.
type S3 struct {
	client    PutObjectAPI
	bucket    string
	prefix    string
	publicURL string
	newID     func() uuid.UUID
}

// NewS3 returns an S3 store using the given client.
func NewS3(client PutObjectAPI, cfg config.ImagesConfig) *S3 {
	return &S3{
		client:    client,
		bucket:    cfg.S3Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		newID:     uuid.New,
	}
}

// Put uploads img under <prefix>/<user>/<uuid><ext>.
func (s *S3) Put(ctx context.Context, userID string, img datauri.DataURI) (string, error) {
	key := fmt.Sprintf("%s/%s/%s%s", s.prefix, userID, s.newID(), img.Ext())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.MediaType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading image to s3: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

// Inline keeps the image as its data URI.
type Inline struct{}

// Put returns the data URI unchanged.
func (Inline) Put(_ context.Context, _ string, img datauri.DataURI) (string, error) {
	return img.String(), nil
}

// New picks the store for cfg: S3 when a bucket is configured, Inline otherwise.
func New(ctx context.Context, cfg config.ImagesConfig) (Store, error) {
	if cfg.S3Bucket == "" {
		return Inline{}, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewS3(s3.NewFromConfig(awsCfg), cfg), nil
}
