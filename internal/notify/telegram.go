// Package notify pushes approval-queue events to external channels.
package notify

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sidegrid/gatekeep/internal/approval"
	"github.com/sidegrid/gatekeep/internal/config"
)

// Notifier announces newly created approval requests. A nil Notifier is
// valid and does nothing.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects the Telegram notifier. Returns (nil, nil) when the
// channel is disabled in config.
func NewTelegram(cfg config.TelegramConfig) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram enabled but no token configured")
	}
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat_id %q: %w", cfg.ChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram init failed: %w", err)
	}
	slog.Info("telegram notifier connected", "username", bot.Self.UserName)

	return &Notifier{bot: bot, chatID: chatID}, nil
}

// RequestCreated announces a new pending request. Send failures are logged,
// not returned, so notification problems never block a review run.
func (n *Notifier) RequestCreated(req approval.Request) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatRequestCreated(req))
	if _, err := n.bot.Send(msg); err != nil {
		slog.Warn("telegram notify failed", "request", req.ID, "error", err)
	}
}

// FormatRequestCreated builds the plain-text announcement for a new request.
func FormatRequestCreated(req approval.Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Review ready for approval\n\n")
	fmt.Fprintf(&sb, "ID: %s\n", req.ID)
	fmt.Fprintf(&sb, "Target: %s\n", req.Target)
	fmt.Fprintf(&sb, "Quality: %.1f -> %.1f\n", req.QualityBefore, req.QualityAfter)
	fmt.Fprintf(&sb, "Fixes: %d\n", len(req.Fixes))
	for i, fix := range req.Fixes {
		if i >= 5 {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(req.Fixes)-i)
			break
		}
		fmt.Fprintf(&sb, "  - [%s/%s] %s\n", fix.Category, fix.Severity, fix.Description)
	}
	fmt.Fprintf(&sb, "\nRun: gatekeep approval review %s", req.ID)
	return sb.String()
}
