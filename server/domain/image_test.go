package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDetectImageFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want ImageFormat
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, ImageFormatJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0x00}, ImageFormatPNG},
		{"gif87a", []byte("GIF87a\x01\x00"), ImageFormatGIF},
		{"gif89a", []byte("GIF89a\x01\x00"), ImageFormatGIF},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), ImageFormatWebP},
		{"riff but not webp", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), ImageFormatUnknown},
		{"truncated png", []byte{0x89, 'P', 'N'}, ImageFormatUnknown},
		{"text", []byte("just some text, named cat.jpg"), ImageFormatUnknown},
		{"empty", nil, ImageFormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectImageFormat(tt.data); got != tt.want {
				t.Errorf("DetectImageFormat() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestContentTypeForFilename(t *testing.T) {
	tests := map[string]string{
		"img-a.png":  "image/png",
		"img-a.gif":  "image/gif",
		"img-a.webp": "image/webp",
		"img-a.jpg":  "image/jpeg",
		"img-a.JPEG": "image/jpeg",
		"img-a":      "image/jpeg",
	}
	for name, want := range tests {
		if got := ContentTypeForFilename(name); got != want {
			t.Errorf("ContentTypeForFilename(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestNewImageFilename(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name, err := NewImageFilename(now, ImageFormatPNG)
		if err != nil {
			t.Fatalf("NewImageFilename() error = %v", err)
		}
		if !IsImageFilename(name) {
			t.Fatalf("generated name %q does not match the image filename pattern", name)
		}
		if !strings.HasSuffix(name, ".png") {
			t.Fatalf("name %q has the wrong extension", name)
		}
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true
	}

	if _, err := NewImageFilename(now, ImageFormatUnknown); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("unknown format error = %v, want ErrInvalidFormat", err)
	}
}

func TestIsImageFilename(t *testing.T) {
	for _, name := range []string{"", "../etc/passwd", "img-x.png", "img-01jabcdefghjkmnpqrstvwxyz0.exe", "IMG-01JABCDEFGHJKMNPQRSTVWXYZ.png"} {
		if IsImageFilename(name) {
			t.Errorf("IsImageFilename(%q) = true, want false", name)
		}
	}
}

func TestStoredImageExpired(t *testing.T) {
	created := time.Now()
	img := StoredImage{CreatedAt: created, ExpiresAt: created.Add(ImageTTL)}
	if img.Expired(created.Add(ImageTTL - time.Millisecond)) {
		t.Errorf("expired before the deadline")
	}
	if !img.Expired(created.Add(ImageTTL)) {
		t.Errorf("not expired at the deadline")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrValidation, "VALIDATION_ERROR"},
		{errors.Join(errors.New("x"), ErrTooLarge), "TOO_LARGE"},
		{ErrInvalidFormat, "INVALID_FORMAT"},
		{ErrStorage, "STORAGE_ERROR"},
		{ErrNotFound, "NOT_FOUND"},
		{errors.New("boom"), "INTERNAL"},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
