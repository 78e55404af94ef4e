package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// LiveStatus is a point-in-time view of the live trading loop.
type LiveStatus struct {
	SessionID    string                     `yaml:"session_id" json:"session_id"`
	Symbol       string                     `yaml:"symbol" json:"symbol"`
	Timeframe    string                     `yaml:"timeframe" json:"timeframe"`
	Testnet      bool                       `yaml:"testnet" json:"testnet"`
	Running      bool                       `yaml:"running" json:"running"`
	StartedAt    time.Time                  `yaml:"started_at" json:"started_at"`
	LastPollAt   time.Time                  `yaml:"last_poll_at" json:"last_poll_at"`
	LastSignalAt optional.Option[time.Time] `yaml:"last_signal_at" json:"last_signal_at"`
	DailyLoss    float64                    `yaml:"daily_loss" json:"daily_loss"`
	MaxDailyLoss float64                    `yaml:"max_daily_loss" json:"max_daily_loss"`
	DailyCapHit  bool                       `yaml:"daily_cap_hit" json:"daily_cap_hit"`
	OpenPosition optional.Option[Position]  `yaml:"open_position" json:"open_position"`
	Polls        int64                      `yaml:"polls" json:"polls"`
	Entries      int64                      `yaml:"entries" json:"entries"`
	Rejections   int64                      `yaml:"rejections" json:"rejections"`
	LastError    string                     `yaml:"last_error,omitempty" json:"last_error,omitempty"`
}
