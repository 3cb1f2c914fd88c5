// Package gateway adapts the Telegram Bot API to the transport neutral
// calls the bot core makes.
package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// api is the subset of *tgbotapi.BotAPI used for outbound calls.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Telegram is the Messaging Gateway backed by the Bot API.
type Telegram struct {
	api api
	bot *tgbotapi.BotAPI // nil when built with a fake api
	log zerolog.Logger
}

// NewTelegram authenticates with token and returns a gateway.
func NewTelegram(token string, log zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram authorized")
	return &Telegram{api: bot, bot: bot, log: log}, nil
}

func newWithAPI(a api, log zerolog.Logger) *Telegram {
	return &Telegram{api: a, log: log}
}

// Username returns the bot's @name, or "" for a fake api.
func (t *Telegram) Username() string {
	if t.bot == nil {
		return ""
	}
	return t.bot.Self.UserName
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return wrapSend("sendMessage", chatID, err)
}

// SendMedia sends the video identified by mediaRef, a Telegram file id.
func (t *Telegram) SendMedia(ctx context.Context, chatID int64, mediaRef, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := tgbotapi.NewVideo(chatID, tgbotapi.FileID(mediaRef))
	v.Caption = caption
	_, err := t.api.Send(v)
	return wrapSend("sendVideo", chatID, err)
}

// PresentOptions sends text with an inline keyboard, one keyboard row per
// row of options.
func (t *Telegram) PresentOptions(ctx context.Context, chatID int64, text string, rows []model.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if kb, ok := keyboard(rows); ok {
		msg.ReplyMarkup = kb
	}
	_, err := t.api.Send(msg)
	return wrapSend("sendMessage", chatID, err)
}

// AnswerCallback acknowledges a button press so the client stops its
// spinner.  text, when set, is shown as a toast.
func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("telegram answerCallbackQuery: %w", err)
	}
	return nil
}

// MembershipStatus returns the user's status in channel, which is either
// an @username or a numeric chat id.
func (t *Telegram) MembershipStatus(ctx context.Context, channel string, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cfg := tgbotapi.GetChatMemberConfig{ChatConfigWithUser: chatWithUser(channel, userID)}
	m, err := t.api.GetChatMember(cfg)
	if err != nil {
		return "", fmt.Errorf("telegram getChatMember %s: %w", channel, err)
	}
	return m.Status, nil
}

func chatWithUser(channel string, userID int64) tgbotapi.ChatConfigWithUser {
	c := tgbotapi.ChatConfigWithUser{UserID: userID}
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		c.ChatID = id
		return c
	}
	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	c.SuperGroupUsername = channel
	return c
}

func keyboard(rows []model.Row) (tgbotapi.InlineKeyboardMarkup, bool) {
	var kb [][]tgbotapi.InlineKeyboardButton
	for _, r := range rows {
		var btns []tgbotapi.InlineKeyboardButton
		for _, o := range r {
			if strings.HasPrefix(o.Token, "http") {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(o.Label, o.Token))
			} else {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(o.Label, o.Token))
			}
		}
		if len(btns) > 0 {
			kb = append(kb, tgbotapi.NewInlineKeyboardRow(btns...))
		}
	}
	if len(kb) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...), true
}

// ChannelLink returns a t.me link for an @username channel, or "" for a
// numeric id that has no public link.
func ChannelLink(channel string) string {
	if _, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return ""
	}
	return "https://t.me/" + strings.TrimPrefix(channel, "@")
}
