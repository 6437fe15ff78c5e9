package adaptor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ponyo877/pairchat/pb"
	"github.com/ponyo877/pairchat/server/domain"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// maxFrameBytes bounds one inbound frame on either transport. It leaves room
// for a base64 encoded image of domain.MaxImageBytes plus the frame envelope.
const maxFrameBytes = 16 << 20

// NewGRPCServer returns a server whose message limits fit maxFrameBytes.
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxFrameBytes),
		grpc.MaxSendMsgSize(maxFrameBytes),
	}, opts...)
	return grpc.NewServer(opts...)
}

type GRPCAdaptor struct {
	session SessionUsecase
	pb.UnimplementedSessionServiceServer
}

func NewGRPCAdaptor(session SessionUsecase) *GRPCAdaptor {
	return &GRPCAdaptor{session: session}
}

// Session serves one bidirectional stream as one connection. The stream
// ending, for any reason, disconnects it.
func (a *GRPCAdaptor) Session(stream pb.SessionService_SessionServer) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	remote := "unknown"
	if p, ok := peer.FromContext(ctx); ok {
		remote = p.Addr.String()
	}

	outbox := newOutboxPeer()
	defer outbox.close()

	requests := make(chan domain.StreamRequest, 32)
	sessionErr := make(chan error, 1)
	go func() {
		sessionErr <- a.session.HandleStreamSession(ctx, requests, outbox, remote)
	}()

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- outbox.run(func(frame pb.Frame) error {
			s, err := pb.ToStruct(frame)
			if err != nil {
				return err
			}
			return stream.Send(s)
		})
	}()

	for {
		in, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug().Str("remote", remote).Msg("grpc stream closed by client")
			} else {
				log.Debug().Err(err).Str("remote", remote).Msg("grpc stream ended")
			}
			break
		}

		frame, err := pb.FromStruct(in)
		if err != nil {
			_ = outbox.Send(domain.NewStreamError("", fmt.Errorf("%w: %w", domain.ErrValidation, err)))
			continue
		}
		request, err := decodeRequest(frame)
		if err != nil {
			_ = outbox.Send(domain.NewStreamError(frame.RequestID, err))
			continue
		}

		select {
		case requests <- request:
		case err := <-sessionErr:
			return sessionStatus(err)
		case err := <-writeErr:
			if err != nil {
				return status.Errorf(codes.Unavailable, "failed to send response: %v", err)
			}
			return nil
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		}
	}

	close(requests)
	return sessionStatus(<-sessionErr)
}

func sessionStatus(err error) error {
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Msg("session ended with error")
	return status.Error(codes.Unavailable, err.Error())
}
