package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: &tgbotapi.Error{Code: 429, Message: "Too Many Requests"}, want: true},
		{name: "server error", err: &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}, want: true},
		{name: "bad request", err: &tgbotapi.Error{Code: 400, Message: "Bad Request"}, want: false},
		{name: "forbidden wrapped", err: fmt.Errorf("send: %w", &tgbotapi.Error{Code: 403}), want: false},
		{name: "network", err: errors.New("connection reset by peer"), want: true},
		{name: "canceled", err: context.Canceled, want: false},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("%s: IsTransient() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBuildSendConfigByKind(t *testing.T) {
	kb := model.Keyboard{{{Text: "ok", Data: "post:accept"}}}

	cfg, err := buildSendConfig(1, model.OutgoingMessage{Kind: enums.ContentKindPhoto, Body: "<b>x</b>", MediaID: "file-1", Keyboard: kb})
	if err != nil {
		t.Fatalf("build photo: %v", err)
	}
	photo, ok := cfg.(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("expected PhotoConfig, got %T", cfg)
	}
	if photo.Caption != "<b>x</b>" || photo.ParseMode != tgbotapi.ModeHTML || photo.ReplyMarkup == nil {
		t.Fatalf("unexpected photo config: %+v", photo)
	}

	cfg, err = buildSendConfig(1, model.OutgoingMessage{Kind: enums.ContentKindText, Body: "a<b", Plain: true, DisablePreview: true})
	if err != nil {
		t.Fatalf("build text: %v", err)
	}
	text := cfg.(tgbotapi.MessageConfig)
	if text.ParseMode != "" || !text.DisableWebPagePreview || text.ReplyMarkup != nil {
		t.Fatalf("unexpected text config: %+v", text)
	}

	if _, err := buildSendConfig(1, model.OutgoingMessage{Kind: "sticker"}); err == nil {
		t.Fatalf("expected unsupported kind error")
	}
}

func TestInboundFromMessage(t *testing.T) {
	msg := &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: -100, Type: "supergroup"},
		From:      &tgbotapi.User{ID: 136817688, IsBot: true, UserName: "Channel_Bot"},
		SenderChat: &tgbotapi.Chat{
			ID:       -1009,
			Title:    "Shop",
			UserName: "shop",
		},
		Photo:           []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
		Caption:         "Sale now",
		CaptionEntities: []tgbotapi.MessageEntity{{Type: "bold", Offset: 0, Length: 4}},
	}

	post, ok := InboundFromMessage(msg)
	if !ok {
		t.Fatalf("expected supported message")
	}
	if post.Kind != enums.ContentKindPhoto || post.MediaID != "large" {
		t.Fatalf("unexpected media: %+v", post)
	}
	if post.Body != "<b>Sale</b> now" || post.PlainText != "Sale now" {
		t.Fatalf("unexpected body: %q / %q", post.Body, post.PlainText)
	}
	if post.SenderChat == nil || post.SenderChat.Title != "Shop" || post.Author == nil || !post.Author.IsBot {
		t.Fatalf("unexpected identity: %+v %+v", post.Author, post.SenderChat)
	}

	if _, ok := InboundFromMessage(&tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Sticker: &tgbotapi.Sticker{}}); ok {
		t.Fatalf("stickers are not relayed")
	}
}
