package compose

import (
	"strings"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/sender"
)

const (
	MetaMarker       = "===== META ====="
	signatureDivider = "_______________"
	acceptedBanner   = "✅ОДОБРЕНО✅"
	declinedBanner   = "❌ОТКЛОНЕНО❌"
	manualPrefix     = "ВНИМАНИЕ! ПРИ АВТОМАТИЧЕСКОЙ ОБРАБОТКИ ЭТОГО СООБЩЕНИЯ ПРОИЗОШЛА ОШИБКА!!!\n" +
		"ОБРАБОТАЙТЕ В РУЧНОМ РЕЖИМЕ\n\n"
)

type Options struct {
	Attribution bool
	Signature   bool
}

var (
	// ReviewCopy is what an administrator sees while deciding.
	ReviewCopy = Options{Attribution: true}
	// Publication is what lands in the public group.
	Publication = Options{Signature: true}
)

// Compose renders a record as Telegram HTML: tag line, blank line, body,
// then the optional attribution and signature blocks. An attribution block
// already present in the body is always dropped first, so composing is
// stable no matter how often the copy was re-rendered.
func Compose(rec model.WorkingRecord, opts Options) string {
	var b strings.Builder

	if len(rec.Tags) > 0 {
		b.WriteString(strings.Join(rec.Tags, " "))
		b.WriteString("\n\n")
	}

	b.WriteString(strings.TrimSpace(StripMeta(rec.Body)))

	if opts.Attribution {
		b.WriteString(Attribution(rec.Sender))
	}

	if sig := strings.TrimSpace(rec.Signature); opts.Signature && sig != "" {
		b.WriteString("\n\n")
		b.WriteString(signatureDivider)
		b.WriteString("\n")
		b.WriteString(sig)
	}

	return b.String()
}

func Attribution(s model.SenderDescriptor) string {
	return "\n\n" + MetaMarker + "\nFrom\n" + sender.UserLink(s)
}

// StripMeta cuts everything from the attribution marker on.
func StripMeta(text string) string {
	idx := strings.Index(text, MetaMarker)
	if idx < 0 {
		return text
	}
	return strings.TrimRight(text[:idx], " \n")
}

func Accepted(text string) string {
	return text + "\n\n" + acceptedBanner
}

func Declined(text, reason string) string {
	return text + "\n\n" + declinedBanner + "\n<b>Причина:</b>\n" + reason
}

// Manual prefixes the raw body for an administrator who has to handle the
// post by hand because the regular copy could not be delivered.
func Manual(body string) string {
	return manualPrefix + body
}
