package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestRenderHTML(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		entities []tgbotapi.MessageEntity
		want     string
	}{
		{
			name: "plain text is escaped",
			text: "a < b & c",
			want: "a &lt; b &amp; c",
		},
		{
			name:     "bold after astral emoji",
			text:     "😀 bold",
			entities: []tgbotapi.MessageEntity{{Type: "bold", Offset: 3, Length: 4}},
			want:     "😀 <b>bold</b>",
		},
		{
			name: "nested spans",
			text: "hello world",
			entities: []tgbotapi.MessageEntity{
				{Type: "bold", Offset: 0, Length: 11},
				{Type: "italic", Offset: 6, Length: 5},
			},
			want: "<b>hello <i>world</i></b>",
		},
		{
			name:     "text link",
			text:     "see here",
			entities: []tgbotapi.MessageEntity{{Type: "text_link", Offset: 4, Length: 4, URL: `https://x.io/?a="1"`}},
			want:     `see <a href="https://x.io/?a=&quot;1&quot;">here</a>`,
		},
		{
			name:     "mention",
			text:     "hi Ivan",
			entities: []tgbotapi.MessageEntity{{Type: "text_mention", Offset: 3, Length: 4, User: &tgbotapi.User{ID: 42}}},
			want:     `hi <a href="tg://user?id=42">Ivan</a>`,
		},
		{
			name:     "unknown entity is plain",
			text:     "#sale now",
			entities: []tgbotapi.MessageEntity{{Type: "hashtag", Offset: 0, Length: 5}},
			want:     "#sale now",
		},
		{
			name:     "entity past the end is clamped",
			text:     "Привет",
			entities: []tgbotapi.MessageEntity{{Type: "italic", Offset: 2, Length: 40}},
			want:     "Пр<i>ивет</i>",
		},
		{
			name:     "flag counts as four units",
			text:     "🇷🇺x",
			entities: []tgbotapi.MessageEntity{{Type: "code", Offset: 4, Length: 1}},
			want:     "🇷🇺<code>x</code>",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderHTML(tc.text, tc.entities); got != tc.want {
				t.Fatalf("RenderHTML() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildInlineKeyboardNeverNil(t *testing.T) {
	markup := BuildInlineKeyboard(nil)
	if markup.InlineKeyboard == nil {
		t.Fatalf("expected empty, non-nil keyboard")
	}
}
