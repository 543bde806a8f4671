package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

// BuildReplyKeyboard lays out the persistent admin menu.
func BuildReplyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(mapRows(rows, tgbotapi.NewKeyboardButton)...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// BuildInlineKeyboard always returns a non-nil row list so that an empty
// keyboard clears the markup instead of being dropped from the request.
func BuildInlineKeyboard(rows model.Keyboard) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: mapRows([][]model.InlineButton(rows), func(b model.InlineButton) tgbotapi.InlineKeyboardButton {
			return tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data)
		}),
	}
}

func mapRows[In, Out any](rows [][]In, build func(In) Out) [][]Out {
	out := make([][]Out, 0, len(rows))
	for _, row := range rows {
		buttons := make([]Out, 0, len(row))
		for _, item := range row {
			buttons = append(buttons, build(item))
		}
		out = append(out, buttons)
	}
	return out
}
