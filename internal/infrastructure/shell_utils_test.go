package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain flag", "--write-thumbnail", "--write-thumbnail"},
		{"plain url", "https://www.youtube.com/watch", "https://www.youtube.com/watch"},
		{"empty", "", "''"},
		{"spaces", "/tmp/my archive", "'/tmp/my archive'"},
		{"output template", "%(title)s.%(ext)s", "'%(title)s.%(ext)s'"},
		{"format selector", "bestvideo+bestaudio[ext=m4a]/best", "'bestvideo+bestaudio[ext=m4a]/best'"},
		{"query string", "https://www.youtube.com/watch?v=abc&t=1", "'https://www.youtube.com/watch?v=abc&t=1'"},
		{"single quote", "it's", `'it'"'"'s'`},
		{"dollar", "$HOME", "'$HOME'"},
		{"newline", "a\nb", "'a\nb'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	tests := []struct {
		name     string
		binary   string
		args     []string
		expected string
	}{
		{
			name:     "no args",
			binary:   "yt-dlp",
			expected: "yt-dlp",
		},
		{
			name:     "listing",
			binary:   "yt-dlp",
			args:     []string{"--flat-playlist", "-J", "https://www.youtube.com/@chan/videos"},
			expected: "yt-dlp --flat-playlist -J https://www.youtube.com/@chan/videos",
		},
		{
			name:     "download with template",
			binary:   "/opt/my tools/yt-dlp",
			args:     []string{"-o", "Archive/%(uploader)s/%(title)s.%(ext)s", "--geo-bypass-country", "US"},
			expected: "'/opt/my tools/yt-dlp' -o 'Archive/%(uploader)s/%(title)s.%(ext)s' --geo-bypass-country US",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscapeCommand(tt.binary, tt.args...))
		})
	}
}
