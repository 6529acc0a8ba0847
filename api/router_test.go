package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/internal/domain"
	"github.com/Sateviss/youtube-archive/internal/infrastructure"
	"github.com/Sateviss/youtube-archive/pkg/logger"
)

const channelURL = "https://www.youtube.com/@chan"

func setupTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()

	repo := infrastructure.NewJSONStateRepository(filepath.Join(dir, "video_list.json"))
	channel := domain.NewChannelRecord(channelURL, "Chan")
	channel.Videos["a"] = &domain.VideoRecord{Title: "A", Date: "20210101", Status: domain.StatusDownloaded}
	channel.Videos["b"] = &domain.VideoRecord{Title: "B", Date: "20210102", Status: domain.StatusChecked}
	channel.Videos["c"] = &domain.VideoRecord{Title: "C", Date: "20210103", Status: domain.StatusDownloading}
	require.NoError(t, repo.Save(domain.State{channelURL: channel}))

	logsDir := filepath.Join(dir, "logs")
	return SetupRouter(repo, logsDir, nil, zap.NewNop()), logsDir
}

func get(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, body := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, body = get(t, router, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestListChannels(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, body := get(t, router, "/api/v1/channels")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	channels := body["channels"].([]interface{})
	first := channels[0].(map[string]interface{})
	assert.Equal(t, channelURL, first["url"])
	assert.Equal(t, "Chan", first["title"])
	stats := first["stats"].(map[string]interface{})
	assert.Equal(t, float64(3), stats["videos"])
	assert.Equal(t, float64(1), stats["downloaded"])
}

func TestGetChannel(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, body := get(t, router, "/api/v1/channels/"+channelURL)
	require.Equal(t, http.StatusOK, w.Code)
	channel := body["channel"].(map[string]interface{})
	assert.Equal(t, "Chan", channel["title"])
	assert.Len(t, channel["videos"], 3)

	w, body = get(t, router, "/api/v1/channels/"+channelURL+"?status=checked")
	require.Equal(t, http.StatusOK, w.Code)
	videos := body["channel"].(map[string]interface{})["videos"].(map[string]interface{})
	assert.Len(t, videos, 1)
	assert.Contains(t, videos, "b")

	w, _ = get(t, router, "/api/v1/channels/"+channelURL+"?status=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = get(t, router, "/api/v1/channels/https://www.youtube.com/@missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStats(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, body := get(t, router, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["channels"])
	assert.Equal(t, float64(3), body["videos"])
	assert.Equal(t, float64(1), body["checked"])
	assert.Equal(t, float64(1), body["downloading"])
	assert.Equal(t, float64(1), body["downloaded"])
}

func TestLogs(t *testing.T) {
	router, logsDir := setupTestRouter(t)

	events, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: logsDir})
	require.NoError(t, err)
	events.LogRunEvent("run_started", zap.String("run_id", "r1"))
	events.LogRunEvent("run_finished", zap.String("run_id", "r1"))
	require.NoError(t, events.Close())

	w, body := get(t, router, "/api/v1/logs/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"run", "error"}, body["categories"])

	w, body = get(t, router, "/api/v1/logs/run")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["count"])

	w, body = get(t, router, "/api/v1/logs/run/search?q=finished")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, _ = get(t, router, "/api/v1/logs/download")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = get(t, router, "/api/v1/logs/run?date=yesterday")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoRoute(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, _ := get(t, router, "/api/v1/nothing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChannel_PlaylistURL(t *testing.T) {
	dir := t.TempDir()
	const playlist = "https://www.youtube.com/playlist?list=PL123"

	repo := infrastructure.NewJSONStateRepository(filepath.Join(dir, "video_list.json"))
	channel := domain.NewChannelRecord(playlist, "Playlist")
	channel.Videos["a"] = &domain.VideoRecord{Title: "A", Status: domain.StatusDownloaded}
	channel.Videos["b"] = &domain.VideoRecord{Title: "B", Status: domain.StatusChecked}
	require.NoError(t, repo.Save(domain.State{playlist: channel}))
	router := SetupRouter(repo, filepath.Join(dir, "logs"), nil, zap.NewNop())

	w, body := get(t, router, "/api/v1/channels/"+playlist)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Playlist", body["channel"].(map[string]interface{})["title"])

	w, body = get(t, router, "/api/v1/channels/"+playlist+"&status=downloaded")
	require.Equal(t, http.StatusOK, w.Code)
	videos := body["channel"].(map[string]interface{})["videos"].(map[string]interface{})
	assert.Len(t, videos, 1)
	assert.Contains(t, videos, "a")

	w, _ = get(t, router, "/api/v1/channels/https://www.youtube.com/playlist?list=PL999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
