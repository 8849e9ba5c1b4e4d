/*
Package randx generates identifiers and random names from crypto/rand.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the alphabet of Base62 strings (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	Base62Len = int64(len(Base62Chars))

	// ImageSuffixLength is the number of random characters appended to image names.
	ImageSuffixLength = 6
)

// Base62 returns a random Base62 string of length n.
func Base62(n int) (string, error) {
	result := make([]byte, n)

	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// ID returns a new UUID v4 string.
func ID() string {
	return uuid.NewString()
}

// ImageName returns a collision-resistant object name for an uploaded image:
// "<unix-nanos>_<base62>" followed by "." and ext when ext is not empty.
func ImageName(now time.Time, ext string) (string, error) {
	suffix, err := Base62(ImageSuffixLength)
	if err != nil {
		return "", err
	}

	name := strconv.FormatInt(now.UnixNano(), 10) + "_" + suffix
	if ext != "" {
		name += "." + ext
	}
	return name, nil
}
