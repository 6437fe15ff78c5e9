package adaptor

import (
	"context"

	"github.com/ponyo877/pairchat/server/domain"
)

type SessionUsecase interface {
	HandleStreamSession(ctx context.Context, requests <-chan domain.StreamRequest, peer domain.Peer, remote string) error
	Stats() domain.PairingStats
}

type MediaUsecase interface {
	Serve(ctx context.Context, filename string) (domain.Image, error)
	Stats() domain.MediaStats
}
