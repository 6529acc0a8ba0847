package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/internal/app"
	"github.com/Sateviss/youtube-archive/internal/domain"
	"github.com/Sateviss/youtube-archive/internal/infrastructure"
	"github.com/Sateviss/youtube-archive/pkg/logger"
)

var version = "dev"

var (
	configPath string
	exitCode   = app.ExitOK
	rootCmd    = &cobra.Command{
		Use:   "archiver",
		Short: "Archive YouTube channels with yt-dlp",
		Long: `Lists every channel in the channel list, fetches metadata for new videos
and downloads those inside each channel's date range. State is kept between
runs so interrupted downloads resume and finished ones are never repeated.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = runArchive(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./config.yaml, ./configs, ~/.youtube-archive, /etc/youtube-archive)")
	rootCmd.Version = version

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(app.ExitFatal)
	}
	os.Exit(exitCode)
}

// runArchive performs one archive run and returns the process exit code
func runArchive(ctx context.Context) int {
	config, log, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return app.ExitFatal
	}
	defer log.Sync()

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

	repo, err := infrastructure.NewStateRepository(&config.State, log)
	if err != nil {
		log.Error("Failed to open state", zap.String("path", config.State.Path), zap.Error(err))
		return app.ExitFatal
	}
	defer repo.Close()

	store, err := app.NewStateStore(repo)
	if err != nil {
		log.Error("Failed to load state", zap.String("path", config.State.Path), zap.Error(err))
		return app.ExitFatal
	}

	log.Info("Starting archive run",
		zap.String("version", version),
		zap.String("channel_list", config.Archive.ChannelList),
		zap.String("state_backend", config.State.Backend),
		zap.String("state_path", config.State.Path),
		zap.Strings("geo_bypass_countries", config.Geo.BypassCountries),
		zap.Int("info_workers", config.Workers.Info),
		zap.Int("download_workers", config.Workers.Download))

	client := infrastructure.NewYTDLPClient(&config.YTDLP, config.Logging.LogsDir, log)
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	summary, err := app.NewArchiver(config, store, client, notifier, events, log).Run(ctx)
	if err != nil {
		log.Error("Archive run failed", zap.Error(err))
		return app.ExitFatal
	}
	return summary.ExitCode()
}

// setup loads the configuration and builds the console logger
func setup() (*domain.Config, *zap.Logger, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return config, log, nil
}
