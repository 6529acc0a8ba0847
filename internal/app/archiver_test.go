package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/internal/domain"
	"github.com/Sateviss/youtube-archive/pkg/logger"
)

type recordingNotifier struct {
	finished      [][3]int
	listingFailed []string
}

func (n *recordingNotifier) NotifyRunFinished(downloaded, failed, listingFailures int) {
	n.finished = append(n.finished, [3]int{downloaded, failed, listingFailures})
}

func (n *recordingNotifier) NotifyListingFailed(channelURL string) {
	n.listingFailed = append(n.listingFailed, channelURL)
}

type archiverFixture struct {
	config   *domain.Config
	repo     *memRepo
	platform *fakePlatform
	notifier *recordingNotifier
}

func newArchiverFixture(t *testing.T, channelList string) *archiverFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channel_list")
	require.NoError(t, os.WriteFile(path, []byte(channelList), 0644))

	config := domain.DefaultConfig()
	config.Archive.ChannelList = path
	config.Geo.BypassCountries = []string{"US", "GB"}

	return &archiverFixture{
		config:   config,
		repo:     newMemRepo(nil),
		platform: newFakePlatform(),
		notifier: &recordingNotifier{},
	}
}

func (f *archiverFixture) setChannelList(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.config.Archive.ChannelList, []byte(content), 0644))
}

func (f *archiverFixture) run(t *testing.T) *RunSummary {
	t.Helper()
	store, err := NewStateStore(f.repo)
	require.NoError(t, err)
	summary, err := NewArchiver(f.config, store, f.platform, f.notifier, nil, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	return summary
}

func (f *archiverFixture) addVideo(channelURL, id, title, date string) {
	listing, ok := f.platform.listings[channelURL]
	if !ok {
		listing = &domain.ChannelListing{Title: "Channel " + channelURL}
		f.platform.listings[channelURL] = listing
	}
	rawURL := "https://yt/watch?v=" + id
	listing.Entries = append(listing.Entries, domain.ListedVideo{ID: id, Title: title, RawURL: rawURL})
	f.platform.metadata[rawURL] = &domain.VideoMetadata{Title: title, UploadDate: date, WebpageURL: "https://www.yt/watch?v=" + id}
}

func TestArchiver_FirstRun(t *testing.T) {
	f := newArchiverFixture(t, testChannel+" 20200101 20220101\n")
	f.addVideo(testChannel, "old", "Old Video", "20190601")
	f.addVideo(testChannel, "new", "New Video", "20210101")
	f.platform.blockedMeta["https://yt/watch?v=new"] = blockSet("US")

	summary := f.run(t)

	assert.Equal(t, ExitOK, summary.ExitCode())
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.Channels)
	assert.Equal(t, 2, summary.InfoRequested)
	assert.Equal(t, 1, summary.InfoQueued)
	assert.Equal(t, 1, summary.OutOfRange)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Zero(t, summary.DownloadFailed)

	saved := f.repo.Saved()
	assert.Equal(t, "Channel "+testChannel, saved[testChannel].Title)
	assert.Equal(t, &domain.VideoRecord{
		Title: "Old Video", Date: "20190601", URL: "https://www.yt/watch?v=old", Status: domain.StatusChecked,
	}, saved[testChannel].Videos["old"])
	assert.Equal(t, &domain.VideoRecord{
		Title: "New Video", Date: "20210101", URL: "https://www.yt/watch?v=new", Status: domain.StatusDownloaded,
	}, saved[testChannel].Videos["new"])

	assert.Equal(t, []string{"https://www.yt/watch?v=new@US"}, f.platform.DownloadCalls())
	assert.Equal(t, [][3]int{{1, 0, 0}}, f.notifier.finished)
}

func TestArchiver_SecondRunIsIdempotent(t *testing.T) {
	f := newArchiverFixture(t, testChannel+" 20200101 20220101\n")
	f.addVideo(testChannel, "old", "Old Video", "20190601")
	f.addVideo(testChannel, "new", "New Video", "20210101")

	f.run(t)
	first := f.repo.Saved()
	metaCalls := len(f.platform.MetaCalls())
	downloadCalls := len(f.platform.DownloadCalls())

	summary := f.run(t)

	assert.Equal(t, first, f.repo.Saved())
	assert.Len(t, f.platform.MetaCalls(), metaCalls)
	assert.Len(t, f.platform.DownloadCalls(), downloadCalls)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.OutOfRange)
	assert.Zero(t, summary.InfoRequested)
	assert.Zero(t, summary.Downloaded)
}

func TestArchiver_WidenedWindowStagesCheckedVideo(t *testing.T) {
	f := newArchiverFixture(t, testChannel+" 20200101 20220101\n")
	f.addVideo(testChannel, "old", "Old Video", "20190601")
	f.run(t)
	require.Empty(t, f.platform.DownloadCalls())

	f.setChannelList(t, testChannel+" 20190101\n")
	summary := f.run(t)

	assert.Equal(t, 1, summary.Staged)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, domain.StatusDownloaded, f.repo.Saved().Video(testChannel, "old").Status)
}

func TestArchiver_InterruptedDownloadResumes(t *testing.T) {
	f := newArchiverFixture(t, testChannel+" 20200101 20220101\n")
	f.addVideo(testChannel, "new", "New Video", "20210101")
	f.platform.blockedDl["https://www.yt/watch?v=new"] = blockSet("US", "GB")

	summary := f.run(t)
	assert.Equal(t, 1, summary.DownloadFailed)
	assert.Equal(t, domain.StatusDownloading, f.repo.Saved().Video(testChannel, "new").Status)

	// Resumed regardless of the window
	f.setChannelList(t, testChannel+" 20230101 20240101\n")
	delete(f.platform.blockedDl, "https://www.yt/watch?v=new")

	summary = f.run(t)
	assert.Equal(t, 1, summary.Resumed)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, domain.StatusDownloaded, f.repo.Saved().Video(testChannel, "new").Status)
	assert.True(t, f.platform.downloadOpts[len(f.platform.downloadOpts)-1].ContinuePartial)
}

func TestArchiver_ListingFailureExitCode(t *testing.T) {
	broken := "https://www.youtube.com/@broken"
	f := newArchiverFixture(t, broken+"\n"+testChannel+"\n")
	f.platform.listErrors[broken] = errors.New("HTTP Error 404")
	f.addVideo(testChannel, "a", "A", "20210101")

	summary := f.run(t)

	assert.Equal(t, ExitListingFailure, summary.ExitCode())
	assert.Equal(t, 2, summary.Channels)
	assert.Equal(t, 1, summary.ListingFailures)
	assert.Equal(t, 1, summary.Downloaded)
	assert.NotContains(t, f.repo.Saved(), broken)
	assert.Equal(t, []string{broken}, f.notifier.listingFailed)
}

func TestArchiver_SkipsInvalidChannelLines(t *testing.T) {
	f := newArchiverFixture(t, "https://yt/c/bad notadate\n"+testChannel+"\n")
	f.addVideo(testChannel, "a", "A", "20210101")

	summary := f.run(t)

	assert.Equal(t, 1, summary.Channels)
	assert.Equal(t, 1, summary.Downloaded)
}

func TestArchiver_MissingChannelListIsFatal(t *testing.T) {
	f := newArchiverFixture(t, "")
	f.config.Archive.ChannelList = filepath.Join(t.TempDir(), "missing")

	store, err := NewStateStore(f.repo)
	require.NoError(t, err)
	_, err = NewArchiver(f.config, store, f.platform, nil, nil, zap.NewNop()).Run(context.Background())
	assert.Error(t, err)
}

func TestArchiver_WritesRunEvents(t *testing.T) {
	logsDir := t.TempDir()
	events, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: logsDir})
	require.NoError(t, err)

	f := newArchiverFixture(t, testChannel+"\n")
	f.addVideo(testChannel, "a", "A", "20210101")

	store, err := NewStateStore(f.repo)
	require.NoError(t, err)
	_, err = NewArchiver(f.config, store, f.platform, nil, events, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, events.Close())

	matches, err := filepath.Glob(filepath.Join(logsDir, "run-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"run_started"`)
	assert.Contains(t, string(data), `"msg":"channel_listed"`)
	assert.Contains(t, string(data), `"msg":"run_finished"`)
	assert.Contains(t, string(data), `"downloaded":1`)
}
