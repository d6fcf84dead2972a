package imagehost

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"PinCurator/internal/config"
	"PinCurator/internal/ports"
)

// S3Host uploads formatted pin images to a public bucket. The Pinterest API
// only accepts publicly reachable image URLs, so hosted publishing needs a
// hosting hop between the local work dir and pin creation.
type S3Host struct {
	client        *s3.Client
	bucket        string
	keyPrefix     string
	publicBaseURL string
}

var _ ports.ImageHost = (*S3Host)(nil)

// NewS3Host creates a host using the default AWS configuration chain, with
// optional overrides from config.
func NewS3Host(ctx context.Context, cfg config.S3Config) (*S3Host, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("image host bucket is not configured")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Host{
		client:        client,
		bucket:        cfg.Bucket,
		keyPrefix:     cfg.KeyPrefix,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload puts the local file into the bucket and returns its public URL.
func (h *S3Host) Upload(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open image %s: %w", localPath, err)
	}
	defer file.Close()

	key := path.Join(h.keyPrefix, filepath.Base(localPath))
	_, err = h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("upload image (%s): %w", apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("upload image: %w", err)
	}

	base := h.publicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.amazonaws.com", h.bucket)
	}
	return base + "/" + key, nil
}
