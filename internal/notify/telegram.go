// Package notify delivers decisions to an optional Telegram channel.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/tradestack/regime/models"
)

// Telegram implements models.DecisionSink.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewTelegram authenticates the bot once at startup.
func NewTelegram(token string, chatID int64, log zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		log:    log.With().Str("component", "notify").Logger(),
	}, nil
}

// NotifyDecision posts the decision with its reasoning trail.
func (t *Telegram) NotifyDecision(ctx context.Context, snap *models.RegimeSnapshot, decision models.StrategyDecision) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n", decision.Strategy, decision.Direction, decision.AssetClass)
	fmt.Fprintf(&b, "confidence %.2f, trend %s, divergence %v\n",
		decision.Confidence, snap.TrendRange.Classification, snap.HasDivergence())
	for _, r := range decision.Reasoning {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	msg := tgbotapi.NewMessage(t.chatID, b.String())
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	t.log.Debug().Str("strategy", string(decision.Strategy)).Msg("Decision notified")
	return nil
}
