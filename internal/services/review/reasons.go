package review

import "strings"

type ReasonCode string

const (
	ReasonMat          ReasonCode = "MAT"
	ReasonMoreThanOnce ReasonCode = "MORE_THAN_ONCE"
	ReasonScam         ReasonCode = "SCAM"
	ReasonLink         ReasonCode = "LINK"
	ReasonVeiled       ReasonCode = "VEILED"
	ReasonOther        ReasonCode = "OTHER"
	// ReasonCancel is the control code on the reason keyboard, not a reason.
	ReasonCancel ReasonCode = "CANCEL"
)

type Reason struct {
	Code  ReasonCode
	Label string
	Text  string
	// BanSender adds the sender to the ban list before the decline proceeds.
	BanSender bool
}

var reasons = []Reason{
	{Code: ReasonMat, Label: "Мат", Text: "Запрещен <b>мат</b> и оскорбления."},
	{
		Code:      ReasonMoreThanOnce,
		Label:     "Больше 1-го раза",
		Text:      "Запрещена реклама офферов <b>более 1-го раза</b> в неделю.",
		BanSender: true,
	},
	{Code: ReasonScam, Label: "Скам", Text: "Запрещена реклама развода и прочего <b>скама</b>."},
	{
		Code:  ReasonLink,
		Label: "Ссылка",
		Text:  "Запрещены <b>любые ссылки</b> в объявлениях, ссылка для связи с вами будет добавлена автоматически.",
	},
	{Code: ReasonVeiled, Label: "Завуалировано", Text: "<b>Непонятна суть предложения</b>. Опишите подробнее ваш оффер."},
	{Code: ReasonOther, Label: "Другое", Text: "Отклонено по личному усмотрению администратора."},
}

// Reasons returns the decline reasons in keyboard order.
func Reasons() []Reason {
	out := make([]Reason, len(reasons))
	copy(out, reasons)
	return out
}

func LookupReason(code string) (Reason, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, r := range reasons {
		if string(r.Code) == code {
			return r, true
		}
	}
	return Reason{}, false
}
