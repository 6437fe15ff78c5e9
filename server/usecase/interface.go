package usecase

import (
	"context"

	"github.com/ponyo877/pairchat/server/domain"
)

type ImageRepository interface {
	SaveImage(ctx context.Context, name string, data []byte) error
	// GetImage and DeleteImage return domain.ErrNotFound for unknown names.
	GetImage(ctx context.Context, name string) ([]byte, error)
	DeleteImage(ctx context.Context, name string) error
	DeleteAllImages(ctx context.Context) (int, error)
	Close() error
}

type MediaStore interface {
	Upload(ctx context.Context, request UploadRequest) (domain.UploadResult, error)
}

type UploadRequest struct {
	RoomID   domain.RoomID
	Sender   string
	Data     []byte
	Filename string
}
