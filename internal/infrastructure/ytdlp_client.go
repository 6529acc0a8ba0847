package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Sateviss/youtube-archive/internal/domain"
	"go.uber.org/zap"
)

// CommandRunner runs binary with args, streaming its output to stdout and stderr
type CommandRunner func(ctx context.Context, stdout, stderr io.Writer, binary string, args ...string) error

// execRunner runs the command as a child process that is killed when ctx is done
func execRunner(ctx context.Context, stdout, stderr io.Writer, binary string, args ...string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// YTDLPClient implements domain.VideoPlatformClient on top of the yt-dlp binary
type YTDLPClient struct {
	config   *domain.YTDLPConfig
	logsDir  string
	logger   *zap.Logger
	run      CommandRunner
	lookPath func(string) (string, error)

	logMu sync.Mutex
}

// NewYTDLPClient creates a new yt-dlp client. Download output is appended to
// a daily log under logsDir; an empty logsDir disables the download log.
func NewYTDLPClient(config *domain.YTDLPConfig, logsDir string, logger *zap.Logger) *YTDLPClient {
	return &YTDLPClient{
		config:   config,
		logsDir:  logsDir,
		logger:   logger,
		run:      execRunner,
		lookPath: exec.LookPath,
	}
}

// WithRunner replaces the command runner
func (c *YTDLPClient) WithRunner(run CommandRunner) *YTDLPClient {
	c.run = run
	return c
}

// ytdlpInfo is the subset of yt-dlp's JSON output the archive reads
type ytdlpInfo struct {
	Type       string       `json:"_type"`
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Channel    string       `json:"channel"`
	Uploader   string       `json:"uploader"`
	URL        string       `json:"url"`
	WebpageURL string       `json:"webpage_url"`
	UploadDate string       `json:"upload_date"`
	Entries    []*ytdlpInfo `json:"entries"`
}

// ListChannelVideos lists a channel with --flat-playlist, following one redirect
func (c *YTDLPClient) ListChannelVideos(ctx context.Context, channelURL string) (*domain.ChannelListing, error) {
	info, err := c.dumpJSON(ctx, listArgs(channelURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrListingFailed, channelURL, err)
	}

	// A channel page may resolve to its uploads playlist
	if info.Type == "url" && info.URL != "" {
		c.logger.Debug("Following channel redirect",
			zap.String("channel_url", channelURL),
			zap.String("target", info.URL))
		info, err = c.dumpJSON(ctx, listArgs(info.URL))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrListingFailed, channelURL, err)
		}
	}

	listing := &domain.ChannelListing{Title: firstNonEmpty(info.Title, info.Channel, info.Uploader)}
	seen := make(map[string]bool)
	flattenEntries(info.Entries, seen, &listing.Entries)
	return listing, nil
}

// flattenEntries appends the leaf entries of a possibly nested playlist in order
func flattenEntries(entries []*ytdlpInfo, seen map[string]bool, out *[]domain.ListedVideo) {
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if len(entry.Entries) > 0 || entry.Type == "playlist" {
			flattenEntries(entry.Entries, seen, out)
			continue
		}
		if entry.ID == "" || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		*out = append(*out, domain.ListedVideo{
			ID:     entry.ID,
			Title:  entry.Title,
			RawURL: firstNonEmpty(entry.URL, entry.WebpageURL, entry.ID),
		})
	}
}

// FetchVideoMetadata resolves a single video as seen from geoCountry
func (c *YTDLPClient) FetchVideoMetadata(ctx context.Context, videoURL, geoCountry string) (*domain.VideoMetadata, error) {
	args := []string{"-J", "--skip-download", "--no-warnings", "--no-playlist"}
	args = appendGeoCountry(args, geoCountry)
	args = append(args, videoURL)

	info, err := c.dumpJSON(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", domain.ErrGeoBlocked, geoCountry, err)
	}

	return &domain.VideoMetadata{
		Title:      info.Title,
		UploadDate: info.UploadDate,
		WebpageURL: firstNonEmpty(info.WebpageURL, videoURL),
	}, nil
}

// DownloadVideo downloads a video into the configured output layout
func (c *YTDLPClient) DownloadVideo(ctx context.Context, videoURL, geoCountry string, opts domain.DownloadOptions) error {
	ffmpegPath := ""
	if opts.PreferFFmpeg {
		if path, err := c.lookPath("ffmpeg"); err == nil {
			ffmpegPath = path
		} else {
			c.logger.Debug("ffmpeg not found in PATH, leaving merger choice to yt-dlp")
		}
	}

	args := BuildDownloadArgs(videoURL, geoCountry, opts, ffmpegPath)

	// Progress output is spooled to disk; only the tail stays in memory.
	tail := &tailWriter{max: outputTailSize}
	var output io.Writer = tail
	spool := c.openSpool()
	if spool != nil {
		defer func() {
			spool.Close()
			os.Remove(spool.Name())
		}()
		output = io.MultiWriter(spool, tail)
	}

	started := time.Now()
	err := c.run(ctx, output, output, c.config.Binary, args...)

	c.appendDownloadLog(started, ShellEscapeCommand(c.config.Binary, args...), spool, tail.Bytes(), err)

	if err != nil {
		if detail := lastLine(tail.Bytes()); detail != "" {
			return fmt.Errorf("%w %q: %s: %w", domain.ErrGeoBlocked, geoCountry, detail, err)
		}
		return fmt.Errorf("%w %q: %w", domain.ErrGeoBlocked, geoCountry, err)
	}
	return nil
}

// BuildDownloadArgs returns the yt-dlp arguments for downloading videoURL
func BuildDownloadArgs(videoURL, geoCountry string, opts domain.DownloadOptions, ffmpegPath string) []string {
	args := []string{"--newline", "--no-playlist"}
	if opts.OutputTemplate != "" {
		args = append(args, "-o", opts.OutputTemplate)
	}
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.MergeOutputFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeOutputFormat)
	}
	if ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", ffmpegPath)
	}
	if opts.WriteThumbnail {
		args = append(args, "--write-thumbnail")
	}
	if opts.WriteSubtitles {
		args = append(args, "--write-subs")
		if opts.AllSubtitles {
			args = append(args, "--sub-langs", "all")
		}
	}
	if opts.WriteInfoJSON {
		args = append(args, "--write-info-json")
	}
	if opts.ContinuePartial {
		args = append(args, "--continue")
	} else {
		args = append(args, "--no-continue")
	}
	args = appendGeoCountry(args, geoCountry)
	return append(args, videoURL)
}

func listArgs(url string) []string {
	return []string{"--flat-playlist", "-J", "--no-warnings", url}
}

// appendGeoCountry adds the geo bypass flag; an empty code means no bypass
func appendGeoCountry(args []string, geoCountry string) []string {
	if geoCountry == "" {
		return args
	}
	return append(args, "--geo-bypass-country", geoCountry)
}

// dumpJSON runs yt-dlp and decodes the single JSON document it prints
func (c *YTDLPClient) dumpJSON(ctx context.Context, args []string) (*ytdlpInfo, error) {
	var stdout, stderr bytes.Buffer
	if err := c.run(ctx, &stdout, &stderr, c.config.Binary, args...); err != nil {
		if detail := lastLine(stderr.Bytes()); detail != "" {
			return nil, fmt.Errorf("%s: %w", detail, err)
		}
		return nil, err
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return &info, nil
}

// openSpool creates the file a single download's output is streamed into.
// It returns nil when the download log is disabled or unavailable.
func (c *YTDLPClient) openSpool() *os.File {
	if c.logsDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.logsDir, 0755); err != nil {
		c.logger.Warn("Failed to create logs directory", zap.Error(err))
		return nil
	}
	spool, err := os.CreateTemp(c.logsDir, ".download-*.tmp")
	if err != nil {
		c.logger.Warn("Failed to create download output spool", zap.Error(err))
		return nil
	}
	return spool
}

// appendDownloadLog copies one download invocation as a block into today's download log
func (c *YTDLPClient) appendDownloadLog(started time.Time, cmdLine string, spool *os.File, tail []byte, runErr error) {
	if spool == nil {
		return
	}

	c.logMu.Lock()
	defer c.logMu.Unlock()

	path := filepath.Join(c.logsDir, "download-"+started.Format("20060102")+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		c.logger.Warn("Failed to open download log", zap.String("path", path), zap.Error(err))
		return
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "\n=== [%s] Download ===\n", started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "$ %s\n", cmdLine)
	if _, err := spool.Seek(0, io.SeekStart); err == nil {
		if _, err := io.Copy(w, spool); err != nil {
			c.logger.Warn("Failed to copy download output", zap.String("path", path), zap.Error(err))
		}
	}
	if len(tail) > 0 && tail[len(tail)-1] != '\n' {
		w.WriteByte('\n')
	}
	finished := time.Now().Format("2006-01-02 15:04:05")
	if runErr != nil {
		fmt.Fprintf(w, "[%s] FAILED: %v\n", finished, runErr)
	} else {
		fmt.Fprintf(w, "[%s] SUCCESS\n", finished)
	}
	w.WriteString("=== END ===\n")

	if err := w.Flush(); err != nil {
		c.logger.Warn("Failed to write download log", zap.String("path", path), zap.Error(err))
	}
}

// outputTailSize bounds the download output kept in memory for error details
const outputTailSize = 8 * 1024

// tailWriter keeps the last max bytes written to it
type tailWriter struct {
	buf []byte
	max int
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n >= w.max {
		w.buf = append(w.buf[:0], p[n-w.max:]...)
		return n, nil
	}
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = append(w.buf[:0], w.buf[over:]...)
	}
	return n, nil
}

func (w *tailWriter) Bytes() []byte {
	return w.buf
}

// lastLine returns the last non-empty line of output
func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
