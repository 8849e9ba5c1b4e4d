package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"

	"lostfound/internal/pkg/logx"
)

// cloudinaryUploader stores images as Cloudinary image assets. Keys are public ids.
type cloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

func newCloudinaryUploader(cfg Config) (*cloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &cloudinaryUploader{
		cld:    cld,
		folder: cfg.Folder,
		logger: logx.Component("cloudinary"),
	}, nil
}

// publicID is the asset name without its extension; Cloudinary keeps the format separately.
func publicID(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func (u *cloudinaryUploader) Upload(ctx context.Context, img Image) (Uploaded, error) {
	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(img.Data), uploader.UploadParams{
		PublicID:     publicID(img.Name),
		Folder:       u.folder,
		Overwrite:    api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		u.logger.Error().Err(err).Str("name", img.Name).Msg("Cloudinary upload failed")
		return Uploaded{}, errors.New("failed to upload image to Cloudinary")
	}
	if res.Error.Message != "" {
		u.logger.Error().Str("cloudinary_error", res.Error.Message).Str("name", img.Name).Msg("Cloudinary rejected upload")
		return Uploaded{}, errors.New("cloudinary rejected the upload")
	}
	if res.SecureURL == "" {
		return Uploaded{}, ErrNoURL
	}

	return Uploaded{URL: res.SecureURL, Key: res.PublicID}, nil
}

func (u *cloudinaryUploader) Delete(ctx context.Context, key string) error {
	res, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: "image",
	})
	if err != nil {
		u.logger.Error().Err(err).Str("public_id", key).Msg("Cloudinary destroy failed")
		return errors.New("failed to delete image from Cloudinary")
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}

	return nil
}
