package item

import (
	"encoding/base64"
	"strings"

	"lostfound/internal/pkg/errs"
)

const (
	// MaxImageSizeMB is the largest decoded image accepted, in megabytes.
	MaxImageSizeMB = 5

	MaxImageSize = MaxImageSizeMB * 1024 * 1024
)

// mimeToExt maps the accepted image MIME types to the extension used for the stored name.
var mimeToExt = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Image is a decoded upload.
type Image struct {
	ContentType string
	Ext         string
	Data        []byte
}

// ParseDataURL decodes "data:image/<type>;base64,<payload>".
func ParseDataURL(s string) (Image, *errs.CustomError) {
	if !strings.HasPrefix(s, "data:image/") {
		return Image{}, errs.NewError(errs.ErrInvalidImage)
	}

	header, payload, found := strings.Cut(s[len("data:"):], ";base64,")
	if !found || payload == "" {
		return Image{}, errs.NewError(errs.ErrInvalidImage)
	}

	contentType := strings.ToLower(header)
	ext, ok := mimeToExt[contentType]
	if !ok {
		return Image{}, errs.NewError(errs.ErrInvalidImage)
	}
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}

	// reject before allocating for obviously oversized payloads
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+3 {
		return Image{}, errs.NewError(errs.ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Image{}, errs.NewError(errs.ErrInvalidImage)
		}
	}

	if len(data) == 0 {
		return Image{}, errs.NewError(errs.ErrInvalidImage)
	}
	if len(data) > MaxImageSize {
		return Image{}, errs.NewError(errs.ErrInvalidImage)
	}

	return Image{ContentType: contentType, Ext: ext, Data: data}, nil
}
