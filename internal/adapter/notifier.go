package adapter

import (
	"context"
	"log/slog"
)

// LogNotifier satisfies the notification port by writing structured log
// lines. Real delivery channels (webhook, in-app) plug in behind the same
// interface.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userIDs []int64, kind, subject, detail string) error {
	n.log.Info("notification",
		"userIds", userIDs, "kind", kind, "subject", subject, "detail", detail)
	return nil
}
