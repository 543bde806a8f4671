package relay

import (
	"strconv"
	"strings"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/review"
)

const callbackPrefix = "post"

const (
	CallbackAccept  = "accept"
	CallbackDecline = "decline"
	CallbackReset   = "reset"
	CallbackFinish  = "finish"
	CallbackTag     = "tag"
	CallbackKeep    = "keep"
)

const (
	labelAccept  = "✅ Принять"
	labelDecline = "❌ Отклонить"
	labelFinish  = "✅ Завершить выбор и отправить сообщение"
	labelCancel  = "🚫 Отмена"
	labelKeep    = "🚫 Отменить автоудаление"
	labelChecked = "✅ "
)

// Callback is the parsed form of "post:<action>[:<arg>]".
type Callback struct {
	Action string
	Arg    string
}

func ParseCallback(data string) (Callback, bool) {
	parts := strings.SplitN(strings.TrimSpace(data), ":", 3)
	if len(parts) < 2 || parts[0] != callbackPrefix || parts[1] == "" {
		return Callback{}, false
	}

	cb := Callback{Action: parts[1]}
	if len(parts) == 3 {
		cb.Arg = parts[2]
	}

	switch cb.Action {
	case CallbackAccept, CallbackDecline, CallbackReset, CallbackFinish, CallbackKeep:
		return cb, true
	case CallbackTag:
		if _, err := strconv.ParseInt(cb.Arg, 10, 64); err != nil {
			return Callback{}, false
		}
		return cb, true
	default:
		return Callback{}, false
	}
}

// TagID returns the numeric argument of a tag callback.
func (c Callback) TagID() int64 {
	id, _ := strconv.ParseInt(c.Arg, 10, 64)
	return id
}

func callbackData(action string, arg ...string) string {
	parts := append([]string{callbackPrefix, action}, arg...)
	return strings.Join(parts, ":")
}

func InitialKeyboard() model.Keyboard {
	return model.Keyboard{
		{
			{Text: labelAccept, Data: callbackData(CallbackAccept)},
			{Text: labelDecline, Data: callbackData(CallbackDecline)},
		},
	}
}

// TagKeyboard lists the catalog one tag per row, marking the selected ones.
func TagKeyboard(catalog []model.Tag, selected []string) model.Keyboard {
	chosen := make(map[string]struct{}, len(selected))
	for _, tag := range selected {
		chosen[tag] = struct{}{}
	}

	rows := make(model.Keyboard, 0, len(catalog)+2)
	for _, tag := range catalog {
		text := tag.Tag
		if _, ok := chosen[tag.Tag]; ok {
			text = labelChecked + text
		}
		rows = append(rows, []model.InlineButton{{
			Text: text,
			Data: callbackData(CallbackTag, strconv.FormatInt(tag.ID, 10)),
		}})
	}
	rows = append(rows,
		[]model.InlineButton{{Text: labelFinish, Data: callbackData(CallbackFinish)}},
		[]model.InlineButton{{Text: labelCancel, Data: callbackData(CallbackReset)}},
	)
	return rows
}

func ReasonKeyboard() model.Keyboard {
	reasons := review.Reasons()
	rows := make(model.Keyboard, 0, len(reasons)+1)
	for _, r := range reasons {
		rows = append(rows, []model.InlineButton{{
			Text: r.Label,
			Data: callbackData(CallbackDecline, string(r.Code)),
		}})
	}
	rows = append(rows, []model.InlineButton{{
		Text: labelCancel,
		Data: callbackData(CallbackDecline, string(review.ReasonCancel)),
	}})
	return rows
}

func KeepKeyboard() model.Keyboard {
	return model.Keyboard{{{Text: labelKeep, Data: callbackData(CallbackKeep)}}}
}
