package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

type Bot struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
	attempts    uint
	logger      *zap.Logger
}

type CommandUpdate struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string
	Private   bool
	Command   string
	Args      string
}

type TextUpdate struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string
	Text      string
	// HTML is Text with its formatting entities rendered.
	HTML string
}

type ContactUpdate struct {
	ChatID    int64
	UserID    int64
	ContactID int64
	FirstName string
	LastName  string
}

// MessageRef points at a private message that is not plain text.
type MessageRef struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Kind      enums.ContentKind
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	MessageID  int
	UserID     int64
	Username   string
	Data       string
}

type Handlers struct {
	OnGroupPost      func(context.Context, model.InboundPost) error
	OnCommand        func(context.Context, CommandUpdate) error
	OnText           func(context.Context, TextUpdate) error
	OnContact        func(context.Context, ContactUpdate) error
	OnPrivateMessage func(context.Context, MessageRef) error
	OnCallback       func(context.Context, CallbackUpdate) error
}

func NewBot(token string, pollTimeout int, logger *zap.Logger) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{
		api:         api,
		pollTimeout: pollTimeout,
		attempts:    5,
		logger:      logger,
	}, nil
}

func (b *Bot) Username() string {
	if b == nil || b.api == nil {
		return ""
	}
	return b.api.Self.UserName
}

// Listen consumes updates one at a time until ctx is done. Handler errors are
// logged and do not stop the loop.
func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.dispatch(ctx, update, handlers); err != nil {
				b.logger.Error("handle telegram update", zap.Int("update_id", update.UpdateID), zap.Error(err))
			}
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update, handlers Handlers) error {
	if cq := update.CallbackQuery; cq != nil && cq.From != nil {
		if handlers.OnCallback == nil {
			return nil
		}
		cb := CallbackUpdate{
			CallbackID: cq.ID,
			UserID:     cq.From.ID,
			Username:   cq.From.UserName,
			Data:       cq.Data,
		}
		if cq.Message != nil {
			cb.ChatID = cq.Message.Chat.ID
			cb.MessageID = cq.Message.MessageID
		}
		return handlers.OnCallback(ctx, cb)
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}
	private := msg.Chat.IsPrivate()

	if msg.IsCommand() && handlers.OnCommand != nil {
		cmd := CommandUpdate{
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			Private:   private,
			Command:   msg.Command(),
			Args:      msg.CommandArguments(),
		}
		if msg.From != nil {
			cmd.UserID = msg.From.ID
			cmd.Username = msg.From.UserName
		}
		return handlers.OnCommand(ctx, cmd)
	}

	if !private {
		post, ok := InboundFromMessage(msg)
		if !ok || handlers.OnGroupPost == nil {
			return nil
		}
		return handlers.OnGroupPost(ctx, post)
	}

	if msg.From == nil {
		return nil
	}

	if msg.Contact != nil {
		if handlers.OnContact == nil {
			return nil
		}
		return handlers.OnContact(ctx, ContactUpdate{
			ChatID:    msg.Chat.ID,
			UserID:    msg.From.ID,
			ContactID: msg.Contact.UserID,
			FirstName: msg.Contact.FirstName,
			LastName:  msg.Contact.LastName,
		})
	}

	if text := strings.TrimSpace(msg.Text); text != "" && handlers.OnText != nil {
		return handlers.OnText(ctx, TextUpdate{
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			UserID:    msg.From.ID,
			Username:  msg.From.UserName,
			Text:      text,
			HTML:      strings.TrimSpace(RenderHTML(msg.Text, msg.Entities)),
		})
	}

	if post, ok := InboundFromMessage(msg); ok && handlers.OnPrivateMessage != nil {
		return handlers.OnPrivateMessage(ctx, MessageRef{
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			UserID:    msg.From.ID,
			Kind:      post.Kind,
		})
	}
	return nil
}

// InboundFromMessage maps the supported content kinds; anything else is
// reported as not ok.
func InboundFromMessage(msg *tgbotapi.Message) (model.InboundPost, bool) {
	post := model.InboundPost{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}

	var (
		text     string
		entities []tgbotapi.MessageEntity
	)
	switch {
	case len(msg.Photo) > 0:
		post.Kind = enums.ContentKindPhoto
		post.MediaID = msg.Photo[len(msg.Photo)-1].FileID
		text, entities = msg.Caption, msg.CaptionEntities
	case msg.Video != nil:
		post.Kind = enums.ContentKindVideo
		post.MediaID = msg.Video.FileID
		text, entities = msg.Caption, msg.CaptionEntities
	case msg.Animation != nil:
		post.Kind = enums.ContentKindAnimation
		post.MediaID = msg.Animation.FileID
		text, entities = msg.Caption, msg.CaptionEntities
	case msg.Document != nil:
		post.Kind = enums.ContentKindDocument
		post.MediaID = msg.Document.FileID
		text, entities = msg.Caption, msg.CaptionEntities
	case msg.Text != "":
		post.Kind = enums.ContentKindText
		text, entities = msg.Text, msg.Entities
	default:
		return model.InboundPost{}, false
	}

	post.PlainText = text
	post.Body = RenderHTML(text, entities)

	if msg.From != nil {
		post.Author = &model.RawUser{
			ID:        msg.From.ID,
			IsBot:     msg.From.IsBot,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
			Username:  msg.From.UserName,
		}
	}
	if msg.SenderChat != nil {
		post.SenderChat = &model.RawChat{
			ID:       msg.SenderChat.ID,
			Title:    msg.SenderChat.Title,
			Username: msg.SenderChat.UserName,
		}
	}
	return post, true
}
