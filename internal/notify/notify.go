// Package notify delivers reminder notifications to the user.
package notify

import "github.com/sirupsen/logrus"

// Notifier delivers a single reminder. Implementations must be safe for
// concurrent use; the scheduler fires from timer goroutines.
type Notifier interface {
	Notify(eventID int64, title string) error
}

// LogNotifier writes reminders to the log. It is the fallback channel for
// headless runs without a configured delivery target.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLog creates a LogNotifier.
func NewLog(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(eventID int64, title string) error {
	n.logger.Infof("Reminder: event %d (%s)", eventID, title)
	return nil
}
