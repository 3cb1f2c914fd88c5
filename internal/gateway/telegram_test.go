package gateway

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

type fakeAPI struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	member    tgbotapi.GetChatMemberConfig
	status    string
	sendErr   error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requested = append(f.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.member = cfg
	return tgbotapi.ChatMember{Status: f.status}, nil
}

func TestSendText_ClassifiesBlockedUser(t *testing.T) {
	f := &fakeAPI{sendErr: &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}}
	tg := newWithAPI(f, zerolog.Nop())
	err := tg.SendText(context.Background(), 5, "hi")
	if !errors.Is(err, ErrRecipientUnavailable) {
		t.Fatalf("403 should be recipient unavailable, got %v", err)
	}
	var se *SendError
	if !errors.As(err, &se) || se.ChatID != 5 {
		t.Fatalf("expected SendError for chat 5, got %v", err)
	}
}

func TestSendText_OtherErrorsAreNotUnavailable(t *testing.T) {
	f := &fakeAPI{sendErr: &tgbotapi.Error{Code: 429, Message: "Too Many Requests"}}
	tg := newWithAPI(f, zerolog.Nop())
	err := tg.SendText(context.Background(), 5, "hi")
	if err == nil || errors.Is(err, ErrRecipientUnavailable) {
		t.Fatalf("429 is not recipient unavailable: %v", err)
	}
}

func TestSendText_CancelledContext(t *testing.T) {
	f := &fakeAPI{}
	tg := newWithAPI(f, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tg.SendText(ctx, 1, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if len(f.sent) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestSendMedia_UsesFileID(t *testing.T) {
	f := &fakeAPI{}
	tg := newWithAPI(f, zerolog.Nop())
	if err := tg.SendMedia(context.Background(), 9, "BAAC-file", "Inception"); err != nil {
		t.Fatal(err)
	}
	v, ok := f.sent[0].(tgbotapi.VideoConfig)
	if !ok {
		t.Fatalf("expected VideoConfig, got %T", f.sent[0])
	}
	if v.Caption != "Inception" || v.ChatID != 9 {
		t.Fatalf("unexpected video config %+v", v)
	}
	if id, ok := v.File.(tgbotapi.FileID); !ok || string(id) != "BAAC-file" {
		t.Fatalf("media ref not passed as file id: %#v", v.File)
	}
}

func TestPresentOptions_BuildsKeyboard(t *testing.T) {
	f := &fakeAPI{}
	tg := newWithAPI(f, zerolog.Nop())
	rows := []model.Row{
		{{Label: "Movies", Token: "movies"}, {Label: "Top", Token: "top"}},
		{{Label: "Join", Token: "https://t.me/chan"}},
		{},
	}
	if err := tg.PresentOptions(context.Background(), 1, "menu", rows); err != nil {
		t.Fatal(err)
	}
	msg := f.sent[0].(tgbotapi.MessageConfig)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard, got %T", msg.ReplyMarkup)
	}
	if len(kb.InlineKeyboard) != 2 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected layout %+v", kb.InlineKeyboard)
	}
	if d := kb.InlineKeyboard[0][1].CallbackData; d == nil || *d != "top" {
		t.Fatalf("callback data not set")
	}
	if u := kb.InlineKeyboard[1][0].URL; u == nil || *u != "https://t.me/chan" {
		t.Fatalf("url button not set")
	}
}

func TestMembershipStatus_ChannelForms(t *testing.T) {
	f := &fakeAPI{status: "member"}
	tg := newWithAPI(f, zerolog.Nop())

	st, err := tg.MembershipStatus(context.Background(), "mychannel", 3)
	if err != nil || st != "member" {
		t.Fatalf("got %q, %v", st, err)
	}
	if f.member.SuperGroupUsername != "@mychannel" || f.member.UserID != 3 {
		t.Fatalf("username not normalised: %+v", f.member.ChatConfigWithUser)
	}

	_, _ = tg.MembershipStatus(context.Background(), "-100123", 3)
	if f.member.ChatID != -100123 || f.member.SuperGroupUsername != "" {
		t.Fatalf("numeric id not used: %+v", f.member.ChatConfigWithUser)
	}
}

func TestChannelLink(t *testing.T) {
	if got := ChannelLink("@news"); got != "https://t.me/news" {
		t.Fatalf("got %q", got)
	}
	if got := ChannelLink("-100123"); got != "" {
		t.Fatalf("numeric channel has no link, got %q", got)
	}
}
