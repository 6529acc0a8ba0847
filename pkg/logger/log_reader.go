package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// LogEntry represents a parsed log entry
type LogEntry struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogReader reads the categorized JSON logs back
type LogReader struct {
	logsDir string
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{
		logsDir: logsDir,
	}
}

// ReadLogs reads the last limit entries of a category log for a day. A missing file yields no entries.
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, limit int) ([]LogEntry, error) {
	return lr.readLines(category, date, limit, nil)
}

// SearchLogs is ReadLogs restricted to lines containing query, case-insensitively
func (lr *LogReader) SearchLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	query = strings.ToLower(query)
	return lr.readLines(category, date, limit, func(line string) bool {
		return strings.Contains(strings.ToLower(line), query)
	})
}

func (lr *LogReader) readLines(category LogCategory, date time.Time, limit int, match func(string) bool) ([]LogEntry, error) {
	file, err := os.Open(CategoryLogPath(lr.logsDir, category, date))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || (match != nil && !match(line)) {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseLogLine(line))
	}
	return entries, nil
}

// parseLogLine splits a JSON log line into the fixed keys and the remaining fields
func parseLogLine(line string) LogEntry {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{Level: "info", Message: line}
	}

	entry := LogEntry{Fields: make(map[string]interface{})}
	for key, value := range raw {
		switch key {
		case "ts":
			entry.Timestamp, _ = value.(string)
		case "level":
			entry.Level, _ = value.(string)
		case "msg":
			entry.Message, _ = value.(string)
		default:
			entry.Fields[key] = value
		}
	}
	return entry
}
