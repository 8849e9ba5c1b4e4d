package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"lostfound/internal/pkg/logx"
)

// s3Uploader stores images in an S3-compatible bucket.
type s3Uploader struct {
	cfg      Config
	s3Client *s3.Client
	uploader *manager.Uploader
	logger   zerolog.Logger
}

// newS3Uploader initializes the S3 client using a custom configuration that supports S3-compatible endpoints.
func newS3Uploader(ctx context.Context, cfg Config) (*s3Uploader, error) {
	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = true
	})

	return &s3Uploader{
		cfg:      cfg,
		s3Client: client,
		uploader: manager.NewUploader(client),
		logger:   logx.Component("s3"),
	}, nil
}

func (u *s3Uploader) Upload(ctx context.Context, img Image) (Uploaded, error) {
	key := objectKey(u.cfg.Folder, img.Name)

	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.cfg.S3BucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(img.Data),
		ContentType:  aws.String(img.ContentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		u.logger.Error().Err(err).Str("key", key).Msg("S3 upload failed")
		return Uploaded{}, errors.New("failed to upload file to S3")
	}

	return Uploaded{URL: u.publicURL(key), Key: key}, nil
}

// Delete removes the object specified by the given key from the bucket.
func (u *s3Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.cfg.S3BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		u.logger.Error().Err(err).Str("key", key).Msg("S3 delete failed")
		return errors.New("failed to delete file from S3")
	}

	return nil
}

func (u *s3Uploader) publicURL(key string) string {
	return publicObjectURL(u.cfg, key)
}

func publicObjectURL(cfg Config, key string) string {
	if cfg.S3PublicBaseURL != "" {
		return strings.TrimRight(cfg.S3PublicBaseURL, "/") + "/" + key
	}
	return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3BucketName + "/" + key
}
