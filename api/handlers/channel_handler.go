package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// ChannelHandler serves the archive state read-only
type ChannelHandler struct {
	repo   domain.StateRepository
	logger *zap.Logger
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(repo domain.StateRepository, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{
		repo:   repo,
		logger: logger,
	}
}

// ChannelSummary is a channel without its video map
type ChannelSummary struct {
	URL   string            `json:"url"`
	Title string            `json:"title"`
	Stats domain.StateStats `json:"stats"`
}

// ListChannels handles GET /api/v1/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	state, ok := h.load(c)
	if !ok {
		return
	}

	channels := make([]ChannelSummary, 0, len(state))
	for url, channel := range state {
		channels = append(channels, ChannelSummary{
			URL:   url,
			Title: channel.Title,
			Stats: channel.Stats(),
		})
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].URL < channels[j].URL })

	c.JSON(http.StatusOK, gin.H{
		"channels": channels,
		"count":    len(channels),
	})
}

// GetChannel handles GET /api/v1/channels/*url
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	url := channelKey(c)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel url is required"})
		return
	}

	state, ok := h.load(c)
	if !ok {
		return
	}

	channel, found := state[url]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	status := domain.VideoStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}
	if status != "" {
		filtered := domain.NewChannelRecord(channel.URL, channel.Title)
		for id, video := range channel.Videos {
			if video.Status == status {
				filtered.Videos[id] = video
			}
		}
		channel = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"channel": channel,
		"stats":   channel.Stats(),
	})
}

// GetStats handles GET /api/v1/stats
func (h *ChannelHandler) GetStats(c *gin.Context) {
	state, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, state.Stats())
}

func (h *ChannelHandler) load(c *gin.Context) (domain.State, bool) {
	state, err := h.repo.Load()
	if err != nil {
		h.logger.Error("Failed to load state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load state"})
		return nil, false
	}
	if state == nil {
		state = make(domain.State)
	}
	return state, true
}

// channelKey rebuilds the channel URL from the wildcard path and the query
// string, so playlist channels (/playlist?list=...) can be looked up. The
// status filter parameter belongs to this endpoint and is dropped.
func channelKey(c *gin.Context) string {
	// Path cleaning by proxies can collapse the scheme separator
	url := restoreScheme(strings.TrimPrefix(c.Param("url"), "/"))
	if url == "" {
		return ""
	}

	var params []string
	for _, param := range strings.Split(c.Request.URL.RawQuery, "&") {
		if param == "" || param == "status" || strings.HasPrefix(param, "status=") {
			continue
		}
		params = append(params, param)
	}
	if len(params) > 0 {
		url += "?" + strings.Join(params, "&")
	}
	return url
}

func restoreScheme(url string) string {
	for _, scheme := range []string{"https:/", "http:/"} {
		if strings.HasPrefix(url, scheme) && !strings.HasPrefix(url, scheme+"/") {
			return scheme + "/" + strings.TrimPrefix(url, scheme)
		}
	}
	return url
}
