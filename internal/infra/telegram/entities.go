package telegram

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

type span struct {
	start int
	end   int
	open  string
	close string
}

// RenderHTML turns text plus its entities into Telegram HTML. Offsets are
// UTF-16 code units, so the text is walked in that encoding.
func RenderHTML(text string, entities []tgbotapi.MessageEntity) string {
	units := utf16.Encode([]rune(text))

	spans := make([]span, 0, len(entities))
	for _, e := range entities {
		openTag, closeTag, ok := entityTags(e)
		if !ok || e.Length <= 0 {
			continue
		}
		start := clamp(e.Offset, 0, len(units))
		end := clamp(e.Offset+e.Length, start, len(units))
		spans = append(spans, span{start: start, end: end, open: openTag, close: closeTag})
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var b strings.Builder
	stack := make([]span, 0, len(spans))
	next := 0
	for pos := 0; ; pos++ {
		for len(stack) > 0 && stack[len(stack)-1].end <= pos {
			b.WriteString(stack[len(stack)-1].close)
			stack = stack[:len(stack)-1]
		}
		for next < len(spans) && spans[next].start <= pos {
			b.WriteString(spans[next].open)
			stack = append(stack, spans[next])
			next++
		}
		if pos >= len(units) {
			break
		}

		r := rune(units[pos])
		if utf16.IsSurrogate(r) && pos+1 < len(units) {
			r = utf16.DecodeRune(r, rune(units[pos+1]))
			pos++
		}
		b.WriteString(textEscaper.Replace(string(r)))
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteString(stack[i].close)
	}

	return b.String()
}

func entityTags(e tgbotapi.MessageEntity) (string, string, bool) {
	switch e.Type {
	case "bold":
		return "<b>", "</b>", true
	case "italic":
		return "<i>", "</i>", true
	case "underline":
		return "<u>", "</u>", true
	case "strikethrough":
		return "<s>", "</s>", true
	case "spoiler":
		return "<tg-spoiler>", "</tg-spoiler>", true
	case "code":
		return "<code>", "</code>", true
	case "pre":
		if e.Language != "" {
			return `<pre><code class="language-` + attrEscaper.Replace(e.Language) + `">`, "</code></pre>", true
		}
		return "<pre>", "</pre>", true
	case "text_link":
		return `<a href="` + attrEscaper.Replace(e.URL) + `">`, "</a>", true
	case "text_mention":
		if e.User == nil {
			return "", "", false
		}
		return `<a href="tg://user?id=` + strconv.FormatInt(e.User.ID, 10) + `">`, "</a>", true
	default:
		return "", "", false
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
