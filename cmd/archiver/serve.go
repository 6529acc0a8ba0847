package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/api"
	"github.com/Sateviss/youtube-archive/api/handlers"
	"github.com/Sateviss/youtube-archive/internal/infrastructure"
	"github.com/Sateviss/youtube-archive/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only status API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		repo, err := infrastructure.NewStateRepository(&config.State, log)
		if err != nil {
			return err
		}
		defer repo.Close()

		var events *logger.MultiLogger
		if config.Logging.LogsDir != "" {
			events, err = logger.NewMultiLogger(logger.MultiLoggerConfig{
				Level:   config.Logging.Level,
				LogsDir: config.Logging.LogsDir,
			})
			if err != nil {
				log.Warn("Event logs disabled", zap.Error(err))
				events = nil
			} else {
				defer events.Close()
			}
		}

		handlers.Version = version
		addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
		server := &http.Server{
			Addr:    addr,
			Handler: api.SetupRouter(repo, config.Logging.LogsDir, events, log),
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info("HTTP server listening", zap.String("addr", addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case err := <-serveErr:
			return fmt.Errorf("failed to start server: %w", err)
		case <-cmd.Context().Done():
			log.Info("Received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}

		log.Info("Server exited")
		return nil
	},
}
