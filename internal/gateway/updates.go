package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// EventFromUpdate translates a Bot API update.  Updates the bot does not
// act on (edits, channel posts, messages without a sender) return false.
func EventFromUpdate(u tgbotapi.Update) (model.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.From == nil {
			return model.Event{}, false
		}
		ev := model.Event{
			ChatID:       cq.From.ID,
			SenderID:     cq.From.ID,
			SenderName:   displayName(cq.From),
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			ev.ChatID = cq.Message.Chat.ID
		}
		return ev, true
	case u.Message != nil:
		msg := u.Message
		if msg.From == nil || msg.Chat == nil {
			return model.Event{}, false
		}
		ev := model.Event{
			ChatID:     msg.Chat.ID,
			SenderID:   msg.From.ID,
			SenderName: displayName(msg.From),
		}
		switch {
		case msg.IsCommand():
			ev.Command = strings.ToLower(msg.Command())
			ev.CommandArgs = strings.TrimSpace(msg.CommandArguments())
		case msg.Video != nil:
			ev.MediaRef = msg.Video.FileID
			ev.Text = msg.Caption
		case msg.Text != "":
			ev.Text = msg.Text
		default:
			return model.Event{}, false
		}
		return ev, true
	}
	return model.Event{}, false
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Poll long-polls for updates until ctx is done, handing each translated
// event to handle one at a time.
func (t *Telegram) Poll(ctx context.Context, timeoutSec int, handle func(context.Context, model.Event)) error {
	if t.bot == nil {
		return errors.New("poll needs a live bot")
	}
	if _, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook before polling: %w", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	t.log.Info().Msg("polling for updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if ev, ok := EventFromUpdate(upd); ok {
				handle(ctx, ev)
			}
		}
	}
}

// SetWebhook points Telegram at url, dropping any webhook registered
// before.
func (t *Telegram) SetWebhook(url string) error {
	if t.bot == nil {
		return errors.New("set webhook needs a live bot")
	}
	if _, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	if _, err := t.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	t.log.Info().Str("url", redactPath(url)).Msg("webhook registered")
	return nil
}

// redactPath hides the secret segment of a webhook url in logs.
func redactPath(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 && i < len(url)-1 {
		return url[:i+1] + "***"
	}
	return url
}
