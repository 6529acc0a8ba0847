package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "channel_list", config.Archive.ChannelList)
	assert.Equal(t, "mp4", config.Archive.MergeOutputFormat)
	assert.True(t, config.Archive.ContinuePartial)
	assert.Equal(t, []string{"BY", "US", "GB", "RU", "NL", "NZ", "AU", "NE"}, config.Geo.BypassCountries)
	assert.Equal(t, 2, config.Workers.Info)
	assert.Equal(t, 2, config.Workers.Download)
	assert.Equal(t, StateBackendJSON, config.State.Backend)
	assert.Equal(t, "video_list.json", config.State.Path)
	assert.Equal(t, "yt-dlp", config.YTDLP.Binary)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.False(t, config.Notification.Enabled)
}

func TestArchiveConfig_DownloadOptions(t *testing.T) {
	config := DefaultConfig()
	opts := config.Archive.DownloadOptions()

	assert.Equal(t, config.Archive.OutputTemplate, opts.OutputTemplate)
	assert.Equal(t, config.Archive.Format, opts.Format)
	assert.True(t, opts.WriteThumbnail)
	assert.True(t, opts.WriteInfoJSON)
	assert.True(t, opts.ContinuePartial)
}
