package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/metrics"
)

// Send delivers msg with the send method matching its content kind.
func (b *Bot) Send(ctx context.Context, chatID int64, msg model.OutgoingMessage) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return 0, fmt.Errorf("chat id is required")
	}

	cfg, err := buildSendConfig(chatID, msg)
	if err != nil {
		return 0, err
	}

	var sent tgbotapi.Message
	err = b.call(ctx, "send_"+string(msg.Kind), func() error {
		var sendErr error
		sent, sendErr = b.api.Send(cfg)
		return sendErr
	})
	if err != nil {
		return 0, fmt.Errorf("send %s message: %w", msg.Kind, err)
	}
	return sent.MessageID, nil
}

func buildSendConfig(chatID int64, msg model.OutgoingMessage) (tgbotapi.Chattable, error) {
	parseMode := tgbotapi.ModeHTML
	if msg.Plain {
		parseMode = ""
	}
	var markup interface{}
	if len(msg.Keyboard) > 0 {
		markup = BuildInlineKeyboard(msg.Keyboard)
	}
	file := tgbotapi.FileID(msg.MediaID)

	switch msg.Kind {
	case enums.ContentKindText:
		cfg := tgbotapi.NewMessage(chatID, msg.Body)
		cfg.ParseMode = parseMode
		cfg.DisableWebPagePreview = msg.DisablePreview
		cfg.ReplyMarkup = markup
		return cfg, nil
	case enums.ContentKindPhoto:
		cfg := tgbotapi.NewPhoto(chatID, file)
		cfg.Caption, cfg.ParseMode, cfg.ReplyMarkup = msg.Body, parseMode, markup
		return cfg, nil
	case enums.ContentKindVideo:
		cfg := tgbotapi.NewVideo(chatID, file)
		cfg.Caption, cfg.ParseMode, cfg.ReplyMarkup = msg.Body, parseMode, markup
		return cfg, nil
	case enums.ContentKindDocument:
		cfg := tgbotapi.NewDocument(chatID, file)
		cfg.Caption, cfg.ParseMode, cfg.ReplyMarkup = msg.Body, parseMode, markup
		return cfg, nil
	case enums.ContentKindAnimation:
		cfg := tgbotapi.NewAnimation(chatID, file)
		cfg.Caption, cfg.ParseMode, cfg.ReplyMarkup = msg.Body, parseMode, markup
		return cfg, nil
	default:
		return nil, fmt.Errorf("unsupported content kind %q", msg.Kind)
	}
}

// Edit replaces the text or caption of a message together with its keyboard.
func (b *Bot) Edit(ctx context.Context, chatID int64, messageID int, kind enums.ContentKind, body string, keyboard model.Keyboard) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	markup := BuildInlineKeyboard(keyboard)
	var cfg tgbotapi.Chattable
	if kind.IsMedia() {
		edit := tgbotapi.NewEditMessageCaption(chatID, messageID, body)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.ReplyMarkup = &markup
		cfg = edit
	} else {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, body)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = true
		edit.ReplyMarkup = &markup
		cfg = edit
	}

	if err := b.call(ctx, "edit", func() error {
		_, err := b.api.Request(cfg)
		return err
	}); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// EditKeyboard swaps the inline keyboard; an empty keyboard removes it.
func (b *Bot) EditKeyboard(ctx context.Context, chatID int64, messageID int, keyboard model.Keyboard) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, BuildInlineKeyboard(keyboard))
	if err := b.call(ctx, "edit_keyboard", func() error {
		_, err := b.api.Request(cfg)
		return err
	}); err != nil {
		return fmt.Errorf("edit reply markup: %w", err)
	}
	return nil
}

func (b *Bot) Delete(ctx context.Context, chatID int64, messageID int) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if err := b.call(ctx, "delete", func() error {
		_, err := b.api.Request(cfg)
		return err
	}); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// Copy re-sends a message to another chat without the forward header.
func (b *Bot) Copy(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error) {
	if b == nil || b.api == nil {
		return 0, fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)
	var copied tgbotapi.MessageID
	if err := b.call(ctx, "copy", func() error {
		var err error
		copied, err = b.api.CopyMessage(cfg)
		return err
	}); err != nil {
		return 0, fmt.Errorf("copy message: %w", err)
	}
	return copied.MessageID, nil
}

// SendReply sends plain text with a reply keyboard, or removes the keyboard
// when markup is nil.
func (b *Bot) SendReply(ctx context.Context, chatID int64, text string, markup interface{}) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	cfg := tgbotapi.NewMessage(chatID, text)
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = true
	if markup != nil {
		cfg.ReplyMarkup = markup
	}
	if err := b.call(ctx, "send_reply", func() error {
		_, err := b.api.Send(cfg)
		return err
	}); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if callbackID == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

// call runs fn with retries on rate limits, server errors and network
// failures. Other API errors fail at once.
func (b *Bot) call(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Attempts(b.attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(250*time.Millisecond),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			metrics.TransportRetries.WithLabelValues(operation).Inc()
			b.logger.Warn("retrying telegram call", zap.String("operation", operation), zap.Uint("attempt", n), zap.Error(err))
		}),
		retry.RetryIf(IsTransient),
	)
}

// IsTransient reports whether a Telegram call is worth repeating.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}
