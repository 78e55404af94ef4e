package notify

import (
	"context"

	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"go.uber.org/zap"
)

// Notifier delivers short operator messages. Delivery is best effort.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NoopNotifier drops every message.
type NoopNotifier struct{}

// Send implements Notifier.
func (NoopNotifier) Send(context.Context, string) error {
	return nil
}

// New returns a Telegram notifier when the config carries a token and a chat
// id, and a NoopNotifier otherwise.
func New(config TelegramConfig, log *logger.Logger) Notifier {
	if !config.Enabled() {
		log.Info("Telegram notifications disabled")

		return NoopNotifier{}
	}

	return NewTelegramNotifier(config, log)
}

// SendBestEffort sends text and logs a failure instead of returning it.
func SendBestEffort(ctx context.Context, n Notifier, log *logger.Logger, text string) {
	if err := n.Send(ctx, text); err != nil {
		log.Warn("Notification failed", zap.Error(err))
	}
}
