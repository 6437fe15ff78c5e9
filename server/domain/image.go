package domain

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	MaxImageBytes = 10 << 20
	ImageTTL      = 30 * time.Second
)

type ImageFormat int

const (
	ImageFormatUnknown ImageFormat = iota
	ImageFormatJPEG
	ImageFormatPNG
	ImageFormatGIF
	ImageFormatWebP
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	gif87a    = []byte("GIF87a")
	gif89a    = []byte("GIF89a")
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// DetectImageFormat inspects the leading bytes only. Client supplied names and
// mime types play no part.
func DetectImageFormat(data []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return ImageFormatJPEG
	case bytes.HasPrefix(data, pngMagic):
		return ImageFormatPNG
	case bytes.HasPrefix(data, gif87a), bytes.HasPrefix(data, gif89a):
		return ImageFormatGIF
	case len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpMagic):
		return ImageFormatWebP
	default:
		return ImageFormatUnknown
	}
}

func ImageFormatFromExtension(ext string) ImageFormat {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return ImageFormatJPEG
	case ".png":
		return ImageFormatPNG
	case ".gif":
		return ImageFormatGIF
	case ".webp":
		return ImageFormatWebP
	default:
		return ImageFormatUnknown
	}
}

func (f ImageFormat) Extension() string {
	switch f {
	case ImageFormatJPEG:
		return ".jpg"
	case ImageFormatPNG:
		return ".png"
	case ImageFormatGIF:
		return ".gif"
	case ImageFormatWebP:
		return ".webp"
	default:
		return ""
	}
}

func (f ImageFormat) ContentType() string {
	switch f {
	case ImageFormatPNG:
		return "image/png"
	case ImageFormatGIF:
		return "image/gif"
	case ImageFormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatJPEG:
		return "jpeg"
	case ImageFormatPNG:
		return "png"
	case ImageFormatGIF:
		return "gif"
	case ImageFormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// ContentTypeForFilename derives the content type from the stored extension.
func ContentTypeForFilename(name string) string {
	return ImageFormatFromExtension(filepath.Ext(name)).ContentType()
}

var imageFilenamePattern = regexp.MustCompile(`^img-[0-9a-z]{26}\.(jpg|png|gif|webp)$`)

// NewImageFilename builds an opaque name from the timestamp and 80 bits of
// crypto/rand entropy, with the extension of the detected format.
func NewImageFilename(now time.Time, format ImageFormat) (string, error) {
	if format == ImageFormatUnknown {
		return "", fmt.Errorf("%w: no extension for unknown format", ErrInvalidFormat)
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate image id: %w", err)
	}
	return "img-" + strings.ToLower(id.String()) + format.Extension(), nil
}

func IsImageFilename(name string) bool {
	return imageFilenamePattern.MatchString(name)
}

type StoredImage struct {
	Filename  string
	Format    ImageFormat
	Size      int
	RoomID    RoomID
	Sender    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s StoredImage) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Image is a stored image read back for delivery.
type Image struct {
	Filename    string
	Data        []byte
	ContentType string
}

// UploadResult is computed once per upload and reused for the room broadcast
// and the uploader's reply.
type UploadResult struct {
	Filename  string
	URL       string
	ExpiresAt time.Time
}

type MediaStats struct {
	Images int
	Bytes  int64
}
