package domain

// Config represents the application configuration
type Config struct {
	Archive      ArchiveConfig      `mapstructure:"archive"`
	Geo          GeoConfig          `mapstructure:"geo"`
	Workers      WorkersConfig      `mapstructure:"workers"`
	State        StateConfig        `mapstructure:"state"`
	YTDLP        YTDLPConfig        `mapstructure:"ytdlp"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Notification NotificationConfig `mapstructure:"notification"`
	Server       ServerConfig       `mapstructure:"server"`
}

// ArchiveConfig contains the channel list location and the download layout
type ArchiveConfig struct {
	ChannelList       string `mapstructure:"channel_list"`
	OutputTemplate    string `mapstructure:"output_template"`
	Format            string `mapstructure:"format"`
	MergeOutputFormat string `mapstructure:"merge_output_format"`
	PreferFFmpeg      bool   `mapstructure:"prefer_ffmpeg"`
	WriteThumbnail    bool   `mapstructure:"write_thumbnail"`
	WriteSubtitles    bool   `mapstructure:"write_subtitles"`
	AllSubtitles      bool   `mapstructure:"all_subtitles"`
	WriteInfoJSON     bool   `mapstructure:"write_info_json"`
	ContinuePartial   bool   `mapstructure:"continue_partial"`
}

// DownloadOptions builds the platform client options from the archive layout
func (c ArchiveConfig) DownloadOptions() DownloadOptions {
	return DownloadOptions{
		OutputTemplate:    c.OutputTemplate,
		Format:            c.Format,
		MergeOutputFormat: c.MergeOutputFormat,
		PreferFFmpeg:      c.PreferFFmpeg,
		WriteThumbnail:    c.WriteThumbnail,
		WriteSubtitles:    c.WriteSubtitles,
		AllSubtitles:      c.AllSubtitles,
		WriteInfoJSON:     c.WriteInfoJSON,
		ContinuePartial:   c.ContinuePartial,
	}
}

// GeoConfig contains the ordered geo-bypass country codes
type GeoConfig struct {
	BypassCountries []string `mapstructure:"bypass_countries"`
}

// WorkersConfig contains the pool sizes of the metadata and download phases
type WorkersConfig struct {
	Info     int `mapstructure:"info"`
	Download int `mapstructure:"download"`
}

// StateConfig contains the state repository settings
type StateConfig struct {
	Backend string `mapstructure:"backend"` // json, sqlite
	Path    string `mapstructure:"path"`
}

// YTDLPConfig contains the extractor binary settings
type YTDLPConfig struct {
	Binary string `mapstructure:"binary"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // event and download logs, empty disables them
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// ServerConfig contains the status server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

const (
	StateBackendJSON   = "json"
	StateBackendSQLite = "sqlite"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Archive: ArchiveConfig{
			ChannelList:       "channel_list",
			OutputTemplate:    "Archive/%(uploader)s/%(upload_date)s %(title)s/%(title)s.%(ext)s",
			Format:            "bestvideo+bestaudio[ext=m4a]/best",
			MergeOutputFormat: "mp4",
			PreferFFmpeg:      true,
			WriteThumbnail:    true,
			WriteSubtitles:    true,
			AllSubtitles:      true,
			WriteInfoJSON:     true,
			ContinuePartial:   true,
		},
		Geo: GeoConfig{
			BypassCountries: []string{"BY", "US", "GB", "RU", "NL", "NZ", "AU", "NE"},
		},
		Workers: WorkersConfig{
			Info:     2,
			Download: 2,
		},
		State: StateConfig{
			Backend: StateBackendJSON,
			Path:    "video_list.json",
		},
		YTDLP: YTDLPConfig{
			Binary: "yt-dlp",
		},
		Logging: LoggingConfig{
			Level:      "debug",
			Format:     "console",
			OutputPath: "stderr",
			LogsDir:    "",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}
