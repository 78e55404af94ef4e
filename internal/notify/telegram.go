package notify

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultTelegramAPIURL = "https://api.telegram.org"
	telegramTimeout       = 10 * time.Second
)

// TelegramConfig identifies the bot and the chat that receives messages.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" json:"bot_token" jsonschema:"title=Bot token,description=Telegram bot token"`
	ChatID   string `yaml:"chat_id" json:"chat_id" jsonschema:"title=Chat ID,description=Telegram chat receiving the messages"`
	// APIURL overrides the Bot API endpoint.
	APIURL string `yaml:"api_url,omitempty" json:"api_url,omitempty" jsonschema:"title=API URL"`
}

// Enabled reports whether both the token and the chat id are set.
func (c TelegramConfig) Enabled() bool {
	return strings.TrimSpace(c.BotToken) != "" && strings.TrimSpace(c.ChatID) != ""
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// TelegramNotifier posts messages through the Telegram Bot API.
// The token and chat id never appear in logs or returned errors.
type TelegramNotifier struct {
	client *resty.Client
	config TelegramConfig
	log    *logger.Logger
}

// NewTelegramNotifier creates a notifier for the configured bot.
func NewTelegramNotifier(config TelegramConfig, log *logger.Logger) *TelegramNotifier {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = defaultTelegramAPIURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(telegramTimeout).
		SetHeader("Content-Type", "application/json")

	return &TelegramNotifier{
		client: client,
		config: config,
		log:    log,
	}
}

// Send implements Notifier.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetPathParam("token", t.config.BotToken).
		SetBody(sendMessageRequest{ChatID: t.config.ChatID, Text: text}).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "telegram request failed", redact(err))
	}

	if resp.IsError() {
		return errors.Newf(errors.ErrCodeNotificationFailed, "telegram returned status %d", resp.StatusCode())
	}

	t.log.Debug("Telegram message sent", zap.Int("length", len(text)))

	return nil
}

// redact drops the request URL, which carries the bot token.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}

	return err
}
