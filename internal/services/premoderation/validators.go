package premoderation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/sender"
)

const (
	tooLongTemplate      = "%s, Ваше сообщение слишком длинное. Сообщение не должно превышать %d символов."
	tooManyEmojiTemplate = "%s, Ваше сообщение содержит слишком много эмодзи. Используйте не более %d эмодзи в сообщении."
	bannedTemplate       = "%s, превышен лимит бесплатных сообщений в чате. Пожалуйста, не спамьте и ознакомьтесь с %s чата."
)

type Settings struct {
	Whitelist    []string
	CaptionLimit int
	TextLimit    int
	EmojiLimit   int
	RulesURL     string
}

type BanChecker interface {
	IsBanned(ctx context.Context, senderID string) (bool, error)
}

// NewDefaultChain wires the validators in their fixed order.
func NewDefaultChain(settings Settings, bans BanChecker, opts ...ChainOption) *Chain {
	chain := NewChain(nil,
		NewWhitelist(settings.Whitelist),
		NewBanCheck(bans, settings.RulesURL),
		NewCaptionLength(settings.CaptionLimit),
		NewTextLength(settings.TextLimit),
		NewEmojiCount(settings.EmojiLimit),
	)
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

type Whitelist struct {
	ids map[string]struct{}
}

func NewWhitelist(ids []string) *Whitelist {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return &Whitelist{ids: set}
}

func (w *Whitelist) Name() string { return "whitelist" }

func (w *Whitelist) Validate(_ context.Context, _ model.InboundPost, s model.SenderDescriptor) (Verdict, error) {
	if _, ok := w.ids[s.ChatID]; ok {
		return Verdict{Status: enums.VerdictWhitelisted}, nil
	}
	return Valid(), nil
}

type BanCheck struct {
	bans     BanChecker
	rulesURL string
}

func NewBanCheck(bans BanChecker, rulesURL string) *BanCheck {
	return &BanCheck{bans: bans, rulesURL: rulesURL}
}

func (b *BanCheck) Name() string { return "ban" }

func (b *BanCheck) Validate(ctx context.Context, _ model.InboundPost, s model.SenderDescriptor) (Verdict, error) {
	if b.bans == nil {
		return Valid(), nil
	}

	banned, err := b.bans.IsBanned(ctx, s.ChatID)
	if err != nil {
		return Verdict{}, fmt.Errorf("check ban: %w", err)
	}
	if !banned {
		return Valid(), nil
	}

	return Verdict{
		Status: enums.VerdictDeclined,
		Reason: fmt.Sprintf(bannedTemplate, sender.UserLink(s), RulesLink(b.rulesURL, "правилами")),
	}, nil
}

// Length limits one body flavour: captions for media kinds, text otherwise.
type Length struct {
	name  string
	media bool
	limit int
}

func NewCaptionLength(limit int) *Length {
	return &Length{name: "caption_length", media: true, limit: limit}
}

func NewTextLength(limit int) *Length {
	return &Length{name: "text_length", media: false, limit: limit}
}

func (l *Length) Name() string { return l.name }

func (l *Length) Validate(_ context.Context, post model.InboundPost, s model.SenderDescriptor) (Verdict, error) {
	if l.limit <= 0 || post.Kind.IsMedia() != l.media {
		return Valid(), nil
	}
	if utf8.RuneCountInString(post.PlainText) <= l.limit {
		return Valid(), nil
	}
	return Verdict{
		Status: enums.VerdictDeclined,
		Reason: fmt.Sprintf(tooLongTemplate, sender.UserLink(s), l.limit),
	}, nil
}

type EmojiCount struct {
	limit int
}

func NewEmojiCount(limit int) *EmojiCount {
	return &EmojiCount{limit: limit}
}

func (e *EmojiCount) Name() string { return "emoji_count" }

func (e *EmojiCount) Validate(_ context.Context, post model.InboundPost, s model.SenderDescriptor) (Verdict, error) {
	if e.limit <= 0 {
		return Valid(), nil
	}
	if CountEmoji(post.PlainText) <= e.limit {
		return Valid(), nil
	}
	return Verdict{
		Status: enums.VerdictDeclined,
		Reason: fmt.Sprintf(tooManyEmojiTemplate, sender.UserLink(s), e.limit),
	}, nil
}

// RulesLink renders an HTML link when a URL is configured.
func RulesLink(url, text string) string {
	if strings.TrimSpace(url) == "" {
		return text
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, url, text)
}
