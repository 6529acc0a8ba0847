package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

func TestPrintStatus(t *testing.T) {
	a := domain.NewChannelRecord("https://yt/c/a", "Alpha")
	a.Videos["1"] = &domain.VideoRecord{Status: domain.StatusDownloaded}
	a.Videos["2"] = &domain.VideoRecord{Status: domain.StatusChecked}
	b := domain.NewChannelRecord("https://yt/c/b", "Beta")
	b.Videos["3"] = &domain.VideoRecord{Status: domain.StatusDownloading}

	var out bytes.Buffer
	printStatus(&out, domain.State{"https://yt/c/b": b, "https://yt/c/a": a})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "CHANNEL"))
	assert.Equal(t, []string{"https://yt/c/a", "Alpha", "2", "1", "0", "1"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"https://yt/c/b", "Beta", "1", "0", "1", "0"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"TOTAL", "2", "channels", "3", "1", "1", "1"}, strings.Fields(lines[3]))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
