package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ponyo877/pairchat/server/domain"
	"github.com/rs/zerolog/log"
)

const (
	defaultURLPrefix = "/temp/"
	deleteTimeout    = 5 * time.Second
)

type storedEntry struct {
	image domain.StoredImage
	timer *time.Timer
}

// MediaUsecase is the ephemeral image store. It is the only writer and
// deleter of the backing repository. Every stored image has a deletion timer;
// readers also check the expiry timestamp so an image is unreachable at its
// deadline even if the timer has not run yet.
type MediaUsecase struct {
	repo      ImageRepository
	ttl       time.Duration
	maxBytes  int
	urlPrefix string
	now       func() time.Time

	mu     sync.Mutex
	images map[string]*storedEntry
	closed bool
}

type MediaOption func(*MediaUsecase)

func WithImageTTL(ttl time.Duration) MediaOption {
	return func(u *MediaUsecase) {
		u.ttl = ttl
	}
}

func WithMaxImageBytes(n int) MediaOption {
	return func(u *MediaUsecase) {
		u.maxBytes = n
	}
}

func WithURLPrefix(prefix string) MediaOption {
	return func(u *MediaUsecase) {
		u.urlPrefix = prefix
	}
}

func WithClock(now func() time.Time) MediaOption {
	return func(u *MediaUsecase) {
		u.now = now
	}
}

func NewMediaUsecase(repo ImageRepository, opts ...MediaOption) *MediaUsecase {
	u := &MediaUsecase{
		repo:      repo,
		ttl:       domain.ImageTTL,
		maxBytes:  domain.MaxImageBytes,
		urlPrefix: defaultURLPrefix,
		now:       time.Now,
		images:    make(map[string]*storedEntry),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *MediaUsecase) Upload(ctx context.Context, request UploadRequest) (domain.UploadResult, error) {
	if request.RoomID == "" || strings.TrimSpace(request.Sender) == "" || len(request.Data) == 0 || strings.TrimSpace(request.Filename) == "" {
		return domain.UploadResult{}, fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}

	format := domain.DetectImageFormat(request.Data)
	if format == domain.ImageFormatUnknown {
		return domain.UploadResult{}, fmt.Errorf("%w: only jpeg, png, gif and webp images are allowed", domain.ErrInvalidFormat)
	}
	if len(request.Data) > u.maxBytes {
		return domain.UploadResult{}, fmt.Errorf("%w: file size exceeds %d bytes", domain.ErrTooLarge, u.maxBytes)
	}

	name, err := domain.NewImageFilename(u.now(), format)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := u.repo.SaveImage(ctx, name, request.Data); err != nil {
		return domain.UploadResult{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	now := u.now()
	image := domain.StoredImage{
		Filename:  name,
		Format:    format,
		Size:      len(request.Data),
		RoomID:    request.RoomID,
		Sender:    request.Sender,
		CreatedAt: now,
		ExpiresAt: now.Add(u.ttl),
	}

	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		u.remove(name)
		return domain.UploadResult{}, fmt.Errorf("%w: media store is closed", domain.ErrStorage)
	}
	entry := &storedEntry{image: image}
	entry.timer = time.AfterFunc(u.ttl, func() {
		u.expire(name, entry)
	})
	u.images[name] = entry
	u.mu.Unlock()

	log.Info().
		Str("file", name).
		Str("room", string(request.RoomID)).
		Str("format", format.String()).
		Int("size", image.Size).
		Time("expires_at", image.ExpiresAt).
		Msg("image stored")

	return domain.UploadResult{
		Filename:  name,
		URL:       u.urlPrefix + name,
		ExpiresAt: image.ExpiresAt,
	}, nil
}

// Serve reads back a live image. Unknown, expired and deleted names all look
// the same to the caller.
func (u *MediaUsecase) Serve(ctx context.Context, filename string) (domain.Image, error) {
	if !domain.IsImageFilename(filename) {
		return domain.Image{}, domain.ErrNotFound
	}

	u.mu.Lock()
	entry, ok := u.images[filename]
	u.mu.Unlock()
	if !ok || entry.image.Expired(u.now()) {
		return domain.Image{}, domain.ErrNotFound
	}

	data, err := u.repo.GetImage(ctx, filename)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Image{}, domain.ErrNotFound
		}
		return domain.Image{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return domain.Image{
		Filename:    filename,
		Data:        data,
		ContentType: domain.ContentTypeForFilename(filename),
	}, nil
}

// PurgeAll forgets every tracked image and deletes everything in storage,
// whatever state the individual timers are in.
func (u *MediaUsecase) PurgeAll(ctx context.Context) (int, error) {
	u.mu.Lock()
	u.cancelTimersLocked()
	u.mu.Unlock()

	deleted, err := u.repo.DeleteAllImages(ctx)
	if err != nil {
		return deleted, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	log.Info().Int("deleted", deleted).Msg("image storage purged")
	return deleted, nil
}

// Close stops every pending deletion timer and then purges storage. Uploads
// that finish afterwards are discarded.
func (u *MediaUsecase) Close(ctx context.Context) error {
	u.mu.Lock()
	u.closed = true
	u.cancelTimersLocked()
	u.mu.Unlock()

	_, err := u.PurgeAll(ctx)
	return err
}

func (u *MediaUsecase) Stats() domain.MediaStats {
	u.mu.Lock()
	defer u.mu.Unlock()

	var stats domain.MediaStats
	for _, entry := range u.images {
		stats.Images++
		stats.Bytes += int64(entry.image.Size)
	}
	return stats
}

func (u *MediaUsecase) cancelTimersLocked() {
	for name, entry := range u.images {
		entry.timer.Stop()
		delete(u.images, name)
	}
}

func (u *MediaUsecase) expire(name string, entry *storedEntry) {
	u.mu.Lock()
	current, ok := u.images[name]
	if !ok || current != entry {
		u.mu.Unlock()
		return
	}
	delete(u.images, name)
	u.mu.Unlock()

	u.remove(name)
}

// remove deletes the stored bytes. An image that is already gone is fine.
func (u *MediaUsecase) remove(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := u.repo.DeleteImage(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error().Err(err).Str("file", name).Msg("failed to delete expired image")
		return
	}
	log.Info().Str("file", name).Msg("deleted expired image")
}
