package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults must be registered for env overrides of keys absent from the file
	for key, value := range configValues(domain.DefaultConfig()) {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.youtube-archive")
		v.AddConfigPath("/etc/youtube-archive")
	}

	v.SetEnvPrefix("ARCHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Decode into a zero value: mapstructure merges slices element by element,
	// which would keep the tail of the default geo list.
	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// configValues flattens config into viper keys
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"archive.channel_list":        config.Archive.ChannelList,
		"archive.output_template":     config.Archive.OutputTemplate,
		"archive.format":              config.Archive.Format,
		"archive.merge_output_format": config.Archive.MergeOutputFormat,
		"archive.prefer_ffmpeg":       config.Archive.PreferFFmpeg,
		"archive.write_thumbnail":     config.Archive.WriteThumbnail,
		"archive.write_subtitles":     config.Archive.WriteSubtitles,
		"archive.all_subtitles":       config.Archive.AllSubtitles,
		"archive.write_info_json":     config.Archive.WriteInfoJSON,
		"archive.continue_partial":    config.Archive.ContinuePartial,
		"geo.bypass_countries":        config.Geo.BypassCountries,
		"workers.info":                config.Workers.Info,
		"workers.download":            config.Workers.Download,
		"state.backend":               config.State.Backend,
		"state.path":                  config.State.Path,
		"ytdlp.binary":                config.YTDLP.Binary,
		"logging.level":               config.Logging.Level,
		"logging.format":              config.Logging.Format,
		"logging.output_path":         config.Logging.OutputPath,
		"logging.logs_dir":            config.Logging.LogsDir,
		"notification.enabled":        config.Notification.Enabled,
		"notification.sound":          config.Notification.Sound,
		"notification.method":         config.Notification.Method,
		"server.host":                 config.Server.Host,
		"server.port":                 config.Server.Port,
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Archive.ChannelList = expandPath(config.Archive.ChannelList)
	config.Archive.OutputTemplate = expandPath(config.Archive.OutputTemplate)
	config.State.Path = expandPath(config.State.Path)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands $HOME and a leading ~ in paths. Other $ sequences are
// left alone since yt-dlp output templates use %(field)s, not shell syntax.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(home, path[2:])
	}
	return strings.ReplaceAll(path, "$HOME", home)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Archive.ChannelList == "" {
		return fmt.Errorf("channel list path not configured")
	}

	if config.Archive.OutputTemplate == "" {
		return fmt.Errorf("output template not configured")
	}

	if config.Workers.Info < 1 {
		return fmt.Errorf("info workers must be at least 1")
	}

	if config.Workers.Download < 1 {
		return fmt.Errorf("download workers must be at least 1")
	}

	switch config.State.Backend {
	case domain.StateBackendJSON, domain.StateBackendSQLite:
	default:
		return fmt.Errorf("unknown state backend: %q", config.State.Backend)
	}

	if config.State.Path == "" {
		return fmt.Errorf("state path not configured")
	}

	if config.YTDLP.Binary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
