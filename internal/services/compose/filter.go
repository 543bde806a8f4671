package compose

import (
	"regexp"
	"strings"
)

var (
	anchorTagRe = regexp.MustCompile(`(?i)</?a(\s[^>]*)?>`)
	plainLinkRe = regexp.MustCompile(`(?i)https?://[^\s<]+`)
	hashtagRe   = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	emailRe     = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	mentionRe   = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	breaksRe    = regexp.MustCompile(`\n{3,}`)
	spacesRe    = regexp.MustCompile(` {2,}`)
)

// FilterBody strips links and contact details from an inbound HTML body and
// collapses the whitespace left behind.
func FilterBody(html string) string {
	html = anchorTagRe.ReplaceAllString(html, "")
	html = plainLinkRe.ReplaceAllString(html, "")
	html = StripHashtags(html)
	html = emailRe.ReplaceAllString(html, "")
	html = mentionRe.ReplaceAllString(html, "")
	html = breaksRe.ReplaceAllString(html, "\n\n")
	html = spacesRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(html)
}

func StripHashtags(text string) string {
	return hashtagRe.ReplaceAllString(text, "")
}
