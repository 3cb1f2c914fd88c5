package gateway

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestEventFromUpdate_Command(t *testing.T) {
	u := tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 11, UserName: "neo"},
		Chat:     &tgbotapi.Chat{ID: 11},
		Text:     "/start ref42",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}}
	ev, ok := EventFromUpdate(u)
	if !ok {
		t.Fatalf("command should translate")
	}
	if ev.Command != "start" || ev.CommandArgs != "ref42" || ev.SenderName != "neo" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestEventFromUpdate_Callback(t *testing.T) {
	u := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 5, FirstName: "Ann", LastName: "Lee"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 77}},
		Data:    "movie_7",
	}}
	ev, ok := EventFromUpdate(u)
	if !ok || !ev.IsCallback() {
		t.Fatalf("callback should translate")
	}
	if ev.ChatID != 77 || ev.SenderID != 5 || ev.CallbackData != "movie_7" || ev.SenderName != "Ann Lee" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestEventFromUpdate_VideoAndText(t *testing.T) {
	from := &tgbotapi.User{ID: 1}
	chat := &tgbotapi.Chat{ID: 1}
	ev, ok := EventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: from, Chat: chat, Video: &tgbotapi.Video{FileID: "vid"},
	}})
	if !ok || ev.MediaRef != "vid" {
		t.Fatalf("video not translated: %+v", ev)
	}
	ev, ok = EventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat, Text: "Inception"}})
	if !ok || ev.Text != "Inception" || ev.Command != "" {
		t.Fatalf("text not translated: %+v", ev)
	}
}

func TestEventFromUpdate_Ignored(t *testing.T) {
	cases := []tgbotapi.Update{
		{},
		{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "no sender"}},
		{Message: &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}}},
		{EditedMessage: &tgbotapi.Message{Text: "edit"}},
	}
	for i, u := range cases {
		if _, ok := EventFromUpdate(u); ok {
			t.Fatalf("case %d should be ignored", i)
		}
	}
}

func TestRedactPath(t *testing.T) {
	if got := redactPath("https://x.io/telegram/webhook/s3cret"); got != "https://x.io/telegram/webhook/***" {
		t.Fatalf("got %q", got)
	}
}
