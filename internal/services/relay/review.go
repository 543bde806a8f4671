package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/metrics"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/compose"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/review"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/working"
)

const keepFlagPrefix = "keep:"

type transitionFunc func(model.WorkingRecord) (model.WorkingRecord, error)

// step loads the record, applies fn and stores the result under
// compare-and-swap. ok is false when the record is gone or changed
// concurrently; both are silent no-ops.
func (c *Controller) step(ctx context.Context, key model.CopyKey, action review.Action, fn transitionFunc) (model.WorkingRecord, bool, error) {
	prev, ok, err := c.load(ctx, key, action)
	if err != nil || !ok {
		return model.WorkingRecord{}, false, err
	}

	next, err := fn(prev)
	if err != nil {
		c.outcome(action, "invalid")
		return model.WorkingRecord{}, false, err
	}

	return c.commit(ctx, prev, next, action)
}

func (c *Controller) load(ctx context.Context, key model.CopyKey, action review.Action) (model.WorkingRecord, bool, error) {
	rec, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, working.ErrNotFound) {
			c.outcome(action, "missing")
			c.logger.Debug("review action on unknown copy", zap.String("action", string(action)), zap.Stringer("copy", key))
			return model.WorkingRecord{}, false, nil
		}
		c.outcome(action, "error")
		return model.WorkingRecord{}, false, fmt.Errorf("load working record %s: %w", key, err)
	}
	return rec, true, nil
}

func (c *Controller) commit(ctx context.Context, prev, next model.WorkingRecord, action review.Action) (model.WorkingRecord, bool, error) {
	saved, err := c.store.Update(ctx, prev.Key, working.Transition(prev, next))
	switch {
	case errors.Is(err, working.ErrNotFound):
		c.outcome(action, "missing")
		return model.WorkingRecord{}, false, nil
	case errors.Is(err, working.ErrStateConflict):
		c.outcome(action, "conflict")
		c.logger.Info("review action lost the race",
			zap.String("action", string(action)),
			zap.Stringer("copy", prev.Key),
			zap.String("from", string(prev.State)),
		)
		return model.WorkingRecord{}, false, nil
	case err != nil:
		c.outcome(action, "error")
		return model.WorkingRecord{}, false, fmt.Errorf("update working record %s: %w", prev.Key, err)
	}

	c.outcome(action, "ok")
	return saved, true, nil
}

func (c *Controller) outcome(action review.Action, outcome string) {
	metrics.ReviewActions.WithLabelValues(string(action), outcome).Inc()
}

// Accept switches the copy to tag selection.
func (c *Controller) Accept(ctx context.Context, key model.CopyKey) error {
	next, ok, err := c.step(ctx, key, review.ActionAccept, review.Accept)
	if err != nil || !ok {
		return err
	}

	catalog, err := c.tags.All(ctx)
	if err != nil {
		return err
	}
	return c.transport.EditKeyboard(ctx, key.ChatID, key.MessageID, TagKeyboard(catalog, next.Tags))
}

// ToggleTag flips one tag and re-renders the copy with the new tag line.
func (c *Controller) ToggleTag(ctx context.Context, key model.CopyKey, tagID int64) error {
	tag, err := c.tags.ByID(ctx, tagID)
	if err != nil {
		return fmt.Errorf("resolve tag %d: %w", tagID, err)
	}

	next, ok, err := c.step(ctx, key, review.ActionToggleTag, func(rec model.WorkingRecord) (model.WorkingRecord, error) {
		return review.ToggleTag(rec, tag.Tag)
	})
	if err != nil || !ok {
		return err
	}

	catalog, err := c.tags.All(ctx)
	if err != nil {
		return err
	}
	return c.transport.Edit(ctx, key.ChatID, key.MessageID, next.Kind,
		compose.Compose(next, compose.ReviewCopy), TagKeyboard(catalog, next.Tags))
}

// Finish publishes the post to the group and retires every copy of it.
// A failed publication puts the record back into tag selection.
func (c *Controller) Finish(ctx context.Context, key model.CopyKey) error {
	ready, ok, err := c.step(ctx, key, review.ActionFinish, review.Finish)
	if err != nil || !ok {
		return err
	}

	if _, err := c.transport.Send(ctx, c.settings.GroupChatID, model.OutgoingMessage{
		Kind:           ready.Kind,
		Body:           compose.Compose(ready, compose.Publication),
		MediaID:        ready.MediaID,
		DisablePreview: true,
	}); err != nil {
		c.outcome(review.ActionPublish, "error")
		if aborted, abortErr := review.AbortPublish(ready); abortErr == nil {
			if _, _, commitErr := c.commit(ctx, ready, aborted, review.ActionAbortPublish); commitErr != nil {
				c.logger.Error("revert failed publication", zap.Stringer("copy", key), zap.Error(commitErr))
			}
		}
		return fmt.Errorf("publish post %s: %w", ready.PostID, err)
	}

	published, err := review.Publish(ready)
	if err != nil {
		return err
	}
	if _, _, err := c.commit(ctx, ready, published, review.ActionPublish); err != nil {
		c.logger.Warn("mark post published", zap.Stringer("copy", key), zap.Error(err))
	}
	metrics.Decisions.WithLabelValues("accepted", "").Inc()

	if err := c.transport.Edit(ctx, key.ChatID, key.MessageID, published.Kind,
		compose.Accepted(compose.Compose(published, compose.ReviewCopy)), KeepKeyboard()); err != nil {
		c.logger.Warn("mark copy accepted", zap.Stringer("copy", key), zap.Error(err))
	}

	siblings, err := c.retireCopies(ctx, published.PostID)
	if err != nil {
		return err
	}
	for _, sibling := range siblings {
		if sibling == key {
			continue
		}
		c.deleteMessage(ctx, sibling.ChatID, sibling.MessageID)
	}

	c.logger.Info("post published",
		zap.String("post_id", published.PostID),
		zap.Int64("admin_id", published.AdminID),
		zap.Strings("tags", published.Tags),
		zap.Int("retired_copies", len(siblings)),
	)
	c.scheduleCopyDelete(key)
	return nil
}

// retireCopies removes every working record of the post. When the bulk
// removal fails the records are removed one by one so no sibling copy stays
// open for a second publication.
func (c *Controller) retireCopies(ctx context.Context, postID string) ([]model.CopyKey, error) {
	keys, err := c.store.RemoveByPost(ctx, postID)
	if err == nil {
		return keys, nil
	}
	c.logger.Warn("bulk retire failed, removing copies one by one", zap.String("post_id", postID), zap.Error(err))

	recs, err := c.store.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("retire copies of post %s: %w", postID, err)
	}
	retired := make([]model.CopyKey, 0, len(recs))
	var failed error
	for _, rec := range recs {
		if err := c.store.Remove(ctx, rec.Key); err != nil {
			if errors.Is(err, working.ErrNotFound) {
				continue
			}
			failed = errors.Join(failed, fmt.Errorf("remove working record %s: %w", rec.Key, err))
			continue
		}
		retired = append(retired, rec.Key)
	}
	if failed != nil {
		return retired, fmt.Errorf("retire copies of post %s: %w", postID, failed)
	}
	return retired, nil
}

func (c *Controller) RequestDecline(ctx context.Context, key model.CopyKey) error {
	_, ok, err := c.step(ctx, key, review.ActionRequestDecline, review.RequestDecline)
	if err != nil || !ok {
		return err
	}
	return c.transport.EditKeyboard(ctx, key.ChatID, key.MessageID, ReasonKeyboard())
}

func (c *Controller) CancelDecline(ctx context.Context, key model.CopyKey) error {
	_, ok, err := c.step(ctx, key, review.ActionCancelDecline, review.CancelDecline)
	if err != nil || !ok {
		return err
	}
	return c.transport.EditKeyboard(ctx, key.ChatID, key.MessageID, InitialKeyboard())
}

// Reset drops the selected tags and shows the copy as it was delivered.
func (c *Controller) Reset(ctx context.Context, key model.CopyKey) error {
	next, ok, err := c.step(ctx, key, review.ActionReset, review.Reset)
	if err != nil || !ok {
		return err
	}
	return c.transport.Edit(ctx, key.ChatID, key.MessageID, next.Kind,
		compose.Compose(next, compose.ReviewCopy), InitialKeyboard())
}

// Decline rejects this administrator's copy with the given reason code.
// Copies held by other administrators are left alone.
func (c *Controller) Decline(ctx context.Context, key model.CopyKey, code string) error {
	if review.ReasonCode(code) == review.ReasonCancel {
		return c.CancelDecline(ctx, key)
	}
	reason, found := review.LookupReason(code)
	if !found {
		return fmt.Errorf("unknown decline reason %q", code)
	}

	prev, ok, err := c.load(ctx, key, review.ActionDecline)
	if err != nil || !ok {
		return err
	}
	next, err := review.Decline(prev, reason)
	if err != nil {
		c.outcome(review.ActionDecline, "invalid")
		return err
	}

	declined, ok, err := c.commit(ctx, prev, next, review.ActionDecline)
	if err != nil || !ok {
		return err
	}
	if reason.BanSender && c.bans != nil {
		if err := c.bans.Ban(ctx, declined.Sender.ChatID); err != nil {
			return err
		}
	}
	metrics.Decisions.WithLabelValues("declined", string(reason.Code)).Inc()

	if err := c.transport.Edit(ctx, key.ChatID, key.MessageID, declined.Kind,
		compose.Declined(compose.Compose(declined, compose.ReviewCopy), reason.Text), KeepKeyboard()); err != nil {
		c.logger.Warn("mark copy declined", zap.Stringer("copy", key), zap.Error(err))
	}

	c.notify(ctx, c.settings.GroupChatID, c.declineNotice(declined.Sender, reason.Text), c.settings.DeclineNoticeTTL, "decline notice")

	if err := c.store.Remove(ctx, key); err != nil && !errors.Is(err, working.ErrNotFound) {
		return fmt.Errorf("remove working record %s: %w", key, err)
	}

	c.logger.Info("post declined",
		zap.String("post_id", declined.PostID),
		zap.Int64("admin_id", declined.AdminID),
		zap.String("reason", string(reason.Code)),
	)
	c.scheduleCopyDelete(key)
	return nil
}

// KeepCopy cancels the pending auto-delete of a decided copy.
func (c *Controller) KeepCopy(ctx context.Context, key model.CopyKey) error {
	if err := c.flags.Set(ctx, keepFlag(key), "1", c.keepTTL()); err != nil {
		return fmt.Errorf("keep copy %s: %w", key, err)
	}
	return c.transport.EditKeyboard(ctx, key.ChatID, key.MessageID, nil)
}

func (c *Controller) scheduleCopyDelete(key model.CopyKey) {
	if c.settings.CopyAutoDelete <= 0 || c.scheduler == nil {
		return
	}
	c.scheduler.After(c.settings.CopyAutoDelete, "copy autodelete", func(ctx context.Context) error {
		flag := keepFlag(key)
		_, kept, err := c.flags.Get(ctx, flag)
		if err != nil {
			return err
		}
		if kept {
			return c.flags.Delete(ctx, flag)
		}
		return c.transport.Delete(ctx, key.ChatID, key.MessageID)
	})
}

func (c *Controller) keepTTL() time.Duration {
	return c.settings.CopyAutoDelete + time.Minute
}

func keepFlag(key model.CopyKey) string {
	return keepFlagPrefix + key.String()
}
