package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/krsnavtr-code/gallery/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log := a.cfg, a.log

	meta, err := openMetadata(ctx, cfg.Metadata, cfg.Metadata.AutoMigrate, log)
	if err != nil {
		return err
	}
	defer meta.close()

	blobs, err := openBlobs(ctx, cfg.Blob, log.Named("blob"))
	if err != nil {
		return err
	}

	mediaService, tagService := newServices(cfg, meta, blobs, log)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.Dependencies{
		Config:       cfg,
		Logger:       log.Named("http"),
		MetadataPing: meta.ping,
		Blobs:        blobs,
		MediaService: mediaService,
		TagService:   tagService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("gallery API listening",
			zap.String("addr", cfg.Server.Address()),
			zap.String("metadata", cfg.Metadata.Driver),
			zap.String("blob", cfg.Blob.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
		return err
	}
	return nil
}
