package domain

// VideoStatus represents how far a video has progressed through the archive pipeline
type VideoStatus string

const (
	StatusChecked     VideoStatus = "checked"
	StatusDownloading VideoStatus = "downloading"
	StatusDownloaded  VideoStatus = "downloaded"
)

// ChannelSpec is one line of the channel list
type ChannelSpec struct {
	URL      string `json:"url"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// ListedVideo is a flat listing entry, produced fresh on every run
type ListedVideo struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	RawURL string `json:"raw_url"`
}

// ChannelListing is the result of listing a channel's uploads
type ChannelListing struct {
	Title   string        `json:"title"`
	Entries []ListedVideo `json:"entries"`
}

// Find returns the listed entry with the given video ID
func (l *ChannelListing) Find(videoID string) (ListedVideo, bool) {
	for _, entry := range l.Entries {
		if entry.ID == videoID {
			return entry, true
		}
	}
	return ListedVideo{}, false
}

// VideoRecord is the persisted state of a single video
type VideoRecord struct {
	Title  string      `json:"title"`
	Date   string      `json:"date,omitempty"` // upload date, YYYYMMDD
	URL    string      `json:"url,omitempty"`  // canonical webpage URL
	Status VideoStatus `json:"status"`
}

// ChannelRecord is the persisted state of a channel and its known videos
type ChannelRecord struct {
	Title  string                  `json:"title"`
	URL    string                  `json:"url"`
	Videos map[string]*VideoRecord `json:"videos"`
}

// NewChannelRecord creates an empty channel record
func NewChannelRecord(url, title string) *ChannelRecord {
	return &ChannelRecord{
		Title:  title,
		URL:    url,
		Videos: make(map[string]*VideoRecord),
	}
}

// State maps channel URL to channel record. It is always persisted as a whole.
type State map[string]*ChannelRecord

// Clone returns a deep copy of the state
func (s State) Clone() State {
	clone := make(State, len(s))
	for url, channel := range s {
		c := NewChannelRecord(channel.URL, channel.Title)
		for id, video := range channel.Videos {
			v := *video
			c.Videos[id] = &v
		}
		clone[url] = c
	}
	return clone
}

// Video returns the record for a video, or nil
func (s State) Video(channelURL, videoID string) *VideoRecord {
	channel, ok := s[channelURL]
	if !ok {
		return nil
	}
	return channel.Videos[videoID]
}

// Task identifies a unit of work for the worker pools
type Task struct {
	ChannelURL string
	VideoID    string
}

// VideoMetadata is the full metadata of a single video
type VideoMetadata struct {
	Title      string `json:"title"`
	UploadDate string `json:"upload_date"`
	WebpageURL string `json:"webpage_url"`
}

// StateStats summarises a state by status
type StateStats struct {
	Channels    int `json:"channels"`
	Videos      int `json:"videos"`
	Checked     int `json:"checked"`
	Downloading int `json:"downloading"`
	Downloaded  int `json:"downloaded"`
}

// Stats counts the videos of a channel by status
func (c *ChannelRecord) Stats() StateStats {
	stats := StateStats{Channels: 1}
	for _, video := range c.Videos {
		stats.Videos++
		switch video.Status {
		case StatusChecked:
			stats.Checked++
		case StatusDownloading:
			stats.Downloading++
		case StatusDownloaded:
			stats.Downloaded++
		}
	}
	return stats
}

// Stats counts all videos in the state by status
func (s State) Stats() StateStats {
	var total StateStats
	for _, channel := range s {
		cs := channel.Stats()
		total.Channels++
		total.Videos += cs.Videos
		total.Checked += cs.Checked
		total.Downloading += cs.Downloading
		total.Downloaded += cs.Downloaded
	}
	return total
}

// IsValid checks if a status is one of the known statuses
func (s VideoStatus) IsValid() bool {
	return s == StatusChecked || s == StatusDownloading || s == StatusDownloaded
}
