/*
Package storage uploads item images to the configured media host and deletes them when
an item is removed. Two hosts are supported: Cloudinary and any S3-compatible bucket.
*/
package storage

import (
	"context"
	"errors"
	"fmt"
)

const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
)

// ErrNoURL is returned when the host accepted an upload but reported no public URL.
var ErrNoURL = errors.New("media host returned no URL")

// Config holds the credentials of both hosts; Provider selects one.
type Config struct {
	Provider string

	// Folder prefixes every object name, e.g. "lost_items".
	Folder string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// S3PublicBaseURL is the public origin of the bucket (CDN or r2.dev domain).
	// Empty means "<endpoint>/<bucket>".
	S3PublicBaseURL string
}

// Image is a file to upload. Name includes the extension.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploaded locates a stored image. Key is what Delete needs.
type Uploaded struct {
	URL string
	Key string
}

// Uploader is the media host.
type Uploader interface {
	Upload(ctx context.Context, img Image) (Uploaded, error)
	Delete(ctx context.Context, key string) error
}

// NewUploader returns the Uploader for cfg.Provider.
func NewUploader(ctx context.Context, cfg Config) (Uploader, error) {
	var (
		u   Uploader
		err error
	)
	switch cfg.Provider {
	case ProviderCloudinary, "":
		u, err = newCloudinaryUploader(cfg)
	case ProviderS3:
		u, err = newS3Uploader(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
	// a failed constructor hands back a typed nil, which must not leak out as a non-nil Uploader
	if err != nil {
		return nil, err
	}
	return u, nil
}

func objectKey(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
