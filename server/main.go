package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ponyo877/pairchat/pb"
	"github.com/ponyo877/pairchat/server/adaptor"
	"github.com/ponyo877/pairchat/server/config"
	"github.com/ponyo877/pairchat/server/domain"
	"github.com/ponyo877/pairchat/server/logging"
	"github.com/ponyo877/pairchat/server/repository"
	"github.com/ponyo877/pairchat/server/usecase"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/reflection"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "pairchat-server",
		Short:        "Anonymous one-to-one chat server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cfgFile)
			if err != nil {
				return err
			}
			flags := map[string]string{
				config.HTTPAddrKey:       "http-addr",
				config.GRPCAddrKey:       "grpc-addr",
				config.StorageBackendKey: "storage",
				config.StorageDirKey:     "storage-dir",
				config.PairingPolicyKey:  "policy",
				config.LogLevelKey:       "log-level",
			}
			for key, name := range flags {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logging.Setup(cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	cmd.Flags().String("http-addr", ":8080", "HTTP listen address for images, stats and /ws")
	cmd.Flags().String("grpc-addr", ":50051", "gRPC listen address")
	cmd.Flags().String("storage", config.BackendFS, "image storage backend (fs or sqlite)")
	cmd.Flags().String("storage-dir", "./temp", "image directory for the fs backend")
	cmd.Flags().String("policy", "lifo", "waiting pool policy (lifo or fifo)")
	cmd.Flags().String("log-level", "info", "log level")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	repo, err := openRepository(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open image storage: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close image storage")
		}
	}()

	media := usecase.NewMediaUsecase(repo)
	if _, err := media.PurgeAll(ctx); err != nil {
		return fmt.Errorf("failed to clear leftover images: %w", err)
	}

	session := usecase.NewSessionUsecase(domain.NewPairingManager(cfg.PairingPolicy), media)
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = session.Run(loopCtx)
	}()

	ws := adaptor.NewWebSocketAdaptor(session)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           adaptor.NewHTTPAdaptor(session, media, ws.Handler()).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		cancelLoop()
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
	}
	grpcServer := adaptor.NewGRPCServer()
	pb.RegisterSessionServiceServer(grpcServer, adaptor.NewGRPCAdaptor(session))
	reflection.Register(grpcServer)

	serveErr := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Str("policy", cfg.PairingPolicy.String()).Msg("grpc server started")
		if err := grpcServer.Serve(lis); err != nil {
			serveErr <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-serveErr:
		log.Error().Err(runErr).Msg("server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}

	cancelLoop()
	<-loopDone

	if err := media.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to purge images on shutdown")
	}
	log.Info().Msg("server stopped")
	return runErr
}

func openRepository(cfg config.Storage) (usecase.ImageRepository, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		repo, err := repository.OpenSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		repo, err := repository.NewFileRepository(afero.NewOsFs(), cfg.Dir)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}
