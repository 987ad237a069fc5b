package ratelimit

import (
	"time"

	"github.com/Proton-105/fish-shop-bot/pkg/config"
)

// Rules encapsulates the configured per-chat limit.
type Rules struct {
	config    config.RateLimitConfig
	whitelist map[int64]struct{}
}

func NewRules(cfg config.RateLimitConfig) *Rules {
	whitelist := make(map[int64]struct{}, len(cfg.Whitelist))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}

	return &Rules{config: cfg, whitelist: whitelist}
}

// Enabled reports whether chats are throttled at all.
func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled && r.config.Limit > 0 && r.config.Window > 0
}

// IsWhitelisted returns true if chatID bypasses rate limits.
func (r *Rules) IsWhitelisted(chatID int64) bool {
	_, ok := r.whitelist[chatID]
	return ok
}

// PerChat returns the number of updates a chat may send per window.
func (r *Rules) PerChat() (int, time.Duration) {
	return r.config.Limit, r.config.Window
}
