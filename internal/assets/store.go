package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"elearn/internal/model"
)

const avatarPrefix = "avatars/"

// Store uploads and deletes profile images in an external object store.
type Store interface {
	Upload(ctx context.Context, encodedImage string) (model.Avatar, error)
	Delete(ctx context.Context, assetID string) error
}

// Config holds the object store connection settings. Endpoint may point at any
// S3-compatible service.
type Config struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Store is an S3-backed asset store.
type S3Store struct {
	client *s3.Client
	bucket string
	urlFor func(key string) string
	logger zerolog.Logger
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds an asset store against an S3-compatible endpoint.
func NewS3Store(ctx context.Context, cfg Config, logger zerolog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := cfg.Endpoint
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		return &S3Store{
			client: client,
			bucket: cfg.Bucket,
			urlFor: func(key string) string { return base + "/" + key },
			logger: logger,
		}, nil
	}

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		urlFor: func(key string) string {
			return strings.TrimSuffix(base, "/") + "/" + cfg.Bucket + "/" + key
		},
		logger: logger,
	}, nil
}

// Upload stores a base64-encoded image and returns its asset reference. Data
// URL payloads ("data:image/png;base64,...") are accepted as-is from clients.
func (s *S3Store) Upload(ctx context.Context, encodedImage string) (model.Avatar, error) {
	raw, err := decodeImage(encodedImage)
	if err != nil {
		return model.Avatar{}, err
	}

	key := avatarPrefix + uuid.New().String()
	contentType := http.DetectContentType(raw)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("avatar upload failed")
		return model.Avatar{}, fmt.Errorf("upload avatar: %w", err)
	}

	return model.Avatar{AssetID: key, URL: s.urlFor(key)}, nil
}

// Delete removes a stored asset.
func (s *S3Store) Delete(ctx context.Context, assetID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}

func decodeImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx != -1 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return raw, nil
}
