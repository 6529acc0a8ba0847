package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/Sateviss/youtube-archive/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications about archive runs
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, appleScriptEscape(message), appleScriptEscape(title))
		if n.config.Sound {
			script += ` sound name "default"`
		}
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyRunFinished reports the outcome of an archive run
func (n *NotificationService) NotifyRunFinished(downloaded, failed, listingFailures int) {
	title := "Archive Run Finished"
	message := fmt.Sprintf("Downloaded %d, failed %d", downloaded, failed)
	if listingFailures > 0 {
		message += fmt.Sprintf(", %d channel(s) could not be listed", listingFailures)
	}
	n.Send(title, message)
}

// NotifyListingFailed reports a channel that could not be listed
func (n *NotificationService) NotifyListingFailed(channelURL string) {
	n.Send("Channel Listing Failed", truncateString(channelURL, 60))
}

func appleScriptEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
