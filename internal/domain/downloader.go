package domain

import "context"

// VideoPlatformClient defines the external extraction and download capability
type VideoPlatformClient interface {
	// ListChannelVideos returns the flat listing of a channel (no full metadata)
	ListChannelVideos(ctx context.Context, channelURL string) (*ChannelListing, error)

	// FetchVideoMetadata resolves full metadata, requesting as if from geoCountry.
	// It fails if the video is blocked or invalid in that country.
	FetchVideoMetadata(ctx context.Context, videoURL, geoCountry string) (*VideoMetadata, error)

	// DownloadVideo transfers the video into the configured output layout.
	// Partially written output is resumed when opts.ContinuePartial is set.
	DownloadVideo(ctx context.Context, videoURL, geoCountry string, opts DownloadOptions) error
}

// DownloadOptions controls how the platform client writes downloaded media
type DownloadOptions struct {
	OutputTemplate    string
	Format            string
	MergeOutputFormat string
	PreferFFmpeg      bool
	WriteThumbnail    bool
	WriteSubtitles    bool
	AllSubtitles      bool
	WriteInfoJSON     bool
	ContinuePartial   bool
}
