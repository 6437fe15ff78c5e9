package adaptor

import (
	"errors"
	"sync"

	"github.com/ponyo877/pairchat/pb"
	"github.com/ponyo877/pairchat/server/domain"
	"github.com/rs/zerolog/log"
)

const outboxSize = 64

var (
	errPeerClosed = errors.New("peer is closed")
	errOutboxFull = errors.New("peer outbox is full")
)

// outboxPeer queues responses for one connection. Send never blocks the
// session loop: a client that stops reading loses notifications instead.
type outboxPeer struct {
	out  chan domain.StreamResponse
	done chan struct{}
	once sync.Once
}

func newOutboxPeer() *outboxPeer {
	return &outboxPeer{
		out:  make(chan domain.StreamResponse, outboxSize),
		done: make(chan struct{}),
	}
}

func (p *outboxPeer) Send(response domain.StreamResponse) error {
	select {
	case <-p.done:
		return errPeerClosed
	default:
	}
	select {
	case p.out <- response:
		return nil
	default:
		return errOutboxFull
	}
}

func (p *outboxPeer) close() {
	p.once.Do(func() {
		close(p.done)
	})
}

// run writes queued responses until the peer is closed or a write fails.
func (p *outboxPeer) run(write func(pb.Frame) error) error {
	for {
		select {
		case <-p.done:
			return nil
		case response := <-p.out:
			frame, err := encodeResponse(response)
			if err != nil {
				log.Error().Err(err).Str("event", response.Type.String()).Msg("failed to encode response")
				continue
			}
			if err := write(frame); err != nil {
				return err
			}
		}
	}
}
