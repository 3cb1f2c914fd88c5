package gateway

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrRecipientUnavailable matches send errors caused by the recipient:
// the user blocked the bot, deleted the account or never opened a chat.
var ErrRecipientUnavailable = errors.New("recipient unavailable")

// SendError wraps a failed gateway call.
type SendError struct {
	Op          string
	ChatID      int64
	Unavailable bool
	Err         error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("telegram %s to %d: %v", e.Op, e.ChatID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRecipientUnavailable) see through SendError.
func (e *SendError) Is(target error) bool {
	return target == ErrRecipientUnavailable && e.Unavailable
}

func wrapSend(op string, chatID int64, err error) error {
	if err == nil {
		return nil
	}
	return &SendError{Op: op, ChatID: chatID, Unavailable: recipientGone(err), Err: err}
}

func recipientGone(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case 403:
		return true
	case 400:
		msg := strings.ToLower(apiErr.Message)
		return strings.Contains(msg, "chat not found") || strings.Contains(msg, "user is deactivated")
	}
	return false
}
