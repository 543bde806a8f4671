package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/metrics"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/compose"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/premoderation"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/sender"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/working"
)

const (
	ackTemplate           = "Спасибо за пост, %s, он будет опубликован после проверки администратора."
	declineNoticeTemplate = "❗️%s, Ваш пост отклонен модератором чата. Пожалуйста, ознакомьтесь с %s группы и попробуйте еще раз. " +
		"Если вы хотите опубликовать объявление в таком виде - воспользуйтесь %s." +
		"\n\n<b>Причина отклонения:</b>\n%s"
)

// Transport is the messaging surface the controller needs. Send returns the
// id of the delivered message.
type Transport interface {
	Send(ctx context.Context, chatID int64, msg model.OutgoingMessage) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, kind enums.ContentKind, body string, keyboard model.Keyboard) error
	EditKeyboard(ctx context.Context, chatID int64, messageID int, keyboard model.Keyboard) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

type Screener interface {
	Evaluate(ctx context.Context, post model.InboundPost, sender model.SenderDescriptor) premoderation.Verdict
}

type AdminLister interface {
	List(ctx context.Context) ([]model.Admin, error)
}

type TagCatalog interface {
	All(ctx context.Context) ([]model.Tag, error)
	ByID(ctx context.Context, id int64) (model.Tag, error)
}

type Banner interface {
	Ban(ctx context.Context, senderID string) error
}

type Scheduler interface {
	After(d time.Duration, name string, fn func(ctx context.Context) error)
}

type Settings struct {
	GroupChatID       int64
	AckTTL            time.Duration
	DeclineNoticeTTL  time.Duration
	CopyAutoDelete    time.Duration
	FanoutConcurrency int
	RulesURL          string
	SponsoredURL      string
}

type Deps struct {
	Transport Transport
	Screener  Screener
	Admins    AdminLister
	Tags      TagCatalog
	Bans      Banner
	Store     working.Store
	Flags     working.FlagStore
	Scheduler Scheduler
}

type Controller struct {
	transport Transport
	screener  Screener
	admins    AdminLister
	tags      TagCatalog
	bans      Banner
	store     working.Store
	flags     working.FlagStore
	scheduler Scheduler
	settings  Settings
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewController(deps Deps, settings Settings, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.FanoutConcurrency <= 0 {
		settings.FanoutConcurrency = 1
	}

	return &Controller{
		transport: deps.Transport,
		screener:  deps.Screener,
		admins:    deps.Admins,
		tags:      deps.Tags,
		bans:      deps.Bans,
		store:     deps.Store,
		flags:     deps.Flags,
		scheduler: deps.Scheduler,
		settings:  settings,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Intake screens a group post and relays it to the administrators when it
// passes. Posts that cannot be attributed are dropped.
func (c *Controller) Intake(ctx context.Context, post model.InboundPost) error {
	if !post.Kind.Valid() {
		return nil
	}

	author, err := sender.Resolve(post)
	if err != nil {
		c.logger.Warn("drop unattributed post",
			zap.Int64("chat_id", post.ChatID),
			zap.Int("message_id", post.MessageID),
			zap.Error(err),
		)
		return nil
	}

	verdict := c.screener.Evaluate(ctx, post, author)
	switch verdict.Status {
	case enums.VerdictWhitelisted:
		return nil
	case enums.VerdictDeclined:
		c.logger.Info("post declined by premoderation",
			zap.String("sender_id", author.ChatID),
			zap.String("validator", verdict.Validator),
		)
		metrics.Decisions.WithLabelValues("premoderation", verdict.Validator).Inc()
		c.deleteMessage(ctx, post.ChatID, post.MessageID)
		c.notify(ctx, post.ChatID, verdict.Reason, c.settings.AckTTL, "premoderation notice")
		return nil
	}

	return c.Relay(ctx, post, author)
}

// Relay fans the post out to every administrator, then removes the original
// and thanks the author.
func (c *Controller) Relay(ctx context.Context, post model.InboundPost, author model.SenderDescriptor) error {
	admins, err := c.admins.List(ctx)
	if err != nil {
		return fmt.Errorf("relay post: %w", err)
	}

	base := model.WorkingRecord{
		PostID:       c.newID(),
		Kind:         post.Kind,
		Body:         compose.FilterBody(post.Body),
		MediaID:      post.MediaID,
		OriginChatID: post.ChatID,
		Sender:       author,
		Status:       enums.RecordStatusPending,
		State:        enums.ReviewStatePending,
		CreatedAt:    c.now().UTC(),
	}

	started := time.Now()
	var group errgroup.Group
	group.SetLimit(c.settings.FanoutConcurrency)
	for _, admin := range admins {
		admin := admin
		group.Go(func() error {
			c.deliver(ctx, admin, base, post)
			return nil
		})
	}
	_ = group.Wait()
	metrics.FanoutLatency.Observe(time.Since(started).Seconds())

	c.logger.Info("post relayed",
		zap.String("post_id", base.PostID),
		zap.String("sender_id", author.ChatID),
		zap.Int("admins", len(admins)),
	)

	c.deleteMessage(ctx, post.ChatID, post.MessageID)
	c.notify(ctx, post.ChatID, fmt.Sprintf(ackTemplate, sender.UserLink(author)), c.settings.AckTTL, "ack")
	return nil
}

func (c *Controller) deliver(ctx context.Context, admin model.Admin, base model.WorkingRecord, post model.InboundPost) {
	msgID, err := c.transport.Send(ctx, admin.ID, model.OutgoingMessage{
		Kind:           base.Kind,
		Body:           compose.Compose(base, compose.ReviewCopy),
		MediaID:        base.MediaID,
		Keyboard:       InitialKeyboard(),
		DisablePreview: true,
	})
	if err != nil {
		metrics.FanoutDeliveries.WithLabelValues("fallback").Inc()
		c.logger.Error("send review copy failed",
			zap.Int64("admin_id", admin.ID),
			zap.String("post_id", base.PostID),
			zap.Error(err),
		)
		c.sendManual(ctx, admin.ID, base, post)
		return
	}

	rec := base.Clone()
	rec.Key = model.CopyKey{ChatID: admin.ID, MessageID: msgID}
	rec.AdminID = admin.ID
	rec.Signature = admin.Signature
	if err := c.store.Insert(ctx, rec); err != nil {
		metrics.FanoutDeliveries.WithLabelValues("untracked").Inc()
		c.logger.Error("store working record failed",
			zap.Stringer("copy", rec.Key),
			zap.String("post_id", rec.PostID),
			zap.Error(err),
		)
		return
	}
	metrics.FanoutDeliveries.WithLabelValues("ok").Inc()
}

// sendManual delivers a plain copy that needs handling by hand. No working
// record is kept for it.
func (c *Controller) sendManual(ctx context.Context, adminID int64, base model.WorkingRecord, post model.InboundPost) {
	body := compose.Manual(post.PlainText) + "\n\nFrom: " + base.Sender.VerboseName + " (" + base.Sender.ChatID + ")"
	if _, err := c.transport.Send(ctx, adminID, model.OutgoingMessage{
		Kind:           enums.ContentKindText,
		Body:           body,
		DisablePreview: true,
		Plain:          true,
	}); err != nil {
		metrics.FanoutDeliveries.WithLabelValues("failed").Inc()
		c.logger.Error("send manual fallback failed",
			zap.Int64("admin_id", adminID),
			zap.String("post_id", base.PostID),
			zap.Error(err),
		)
	}
}

// notify posts an informational message and removes it after ttl.
func (c *Controller) notify(ctx context.Context, chatID int64, text string, ttl time.Duration, name string) {
	msgID, err := c.transport.Send(ctx, chatID, model.OutgoingMessage{
		Kind:           enums.ContentKindText,
		Body:           text,
		DisablePreview: true,
	})
	if err != nil {
		c.logger.Warn("send group notice failed", zap.String("notice", name), zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	c.scheduleDelete(chatID, msgID, ttl, name)
}

func (c *Controller) scheduleDelete(chatID int64, messageID int, ttl time.Duration, name string) {
	if ttl <= 0 || c.scheduler == nil {
		return
	}
	c.scheduler.After(ttl, name, func(ctx context.Context) error {
		return c.transport.Delete(ctx, chatID, messageID)
	})
}

func (c *Controller) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if err := c.transport.Delete(ctx, chatID, messageID); err != nil {
		c.logger.Warn("delete message failed",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err),
		)
	}
}

func (c *Controller) declineNotice(author model.SenderDescriptor, reason string) string {
	return fmt.Sprintf(declineNoticeTemplate,
		sender.UserLink(author),
		premoderation.RulesLink(c.settings.RulesURL, "правилами"),
		premoderation.RulesLink(c.settings.SponsoredURL, "платным размещением"),
		reason,
	)
}
