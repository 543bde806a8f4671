package relayapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	tginfra "github.com/ivankudzin/tgapp/postrelay/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/relay"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/review"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/tags"
	"github.com/ivankudzin/tgapp/postrelay/internal/ui"
)

const (
	tagsCooldownPrefix = "tags_cooldown:"
	tagsLastPrefix     = "tags_last:"
	// Telegram refuses to delete messages older than two days.
	tagsLastTTL = 48 * time.Hour
)

// messenger is the part of the bot the router talks through.
type messenger interface {
	Send(ctx context.Context, chatID int64, msg model.OutgoingMessage) (int, error)
	SendReply(ctx context.Context, chatID int64, text string, markup interface{}) error
	Copy(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

func (a *App) handleGroupPost(ctx context.Context, post model.InboundPost) error {
	if post.ChatID != a.cfg.Relay.GroupChatID {
		return nil
	}
	return a.controller.Intake(ctx, post)
}

func (a *App) handleCommand(ctx context.Context, cmd tginfra.CommandUpdate) error {
	if !cmd.Private {
		if cmd.ChatID == a.cfg.Relay.GroupChatID && cmd.Command == "tags" {
			return a.publicTags(ctx, cmd)
		}
		return nil
	}

	allowed, err := a.directory.IsAdmin(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if !allowed {
		return a.reply(ctx, cmd.ChatID, ui.NoAccess, nil)
	}

	args := strings.TrimSpace(cmd.Args)
	switch cmd.Command {
	case "start":
		a.setState(cmd.ChatID, tginfra.StateIdle)
		return a.reply(ctx, cmd.ChatID, ui.MenuShown, ui.AdminMenu())
	case "add_tag":
		if args == "" {
			return a.prompt(ctx, cmd.ChatID, tginfra.StateWaitingAddTags, ui.AskAddTags)
		}
		return a.addTags(ctx, cmd.ChatID, args)
	case "remove_tag":
		if args == "" {
			return a.prompt(ctx, cmd.ChatID, tginfra.StateWaitingRemoveTag, ui.AskRemoveTags)
		}
		return a.removeTags(ctx, cmd.ChatID, args)
	case "tags":
		return a.listTags(ctx, cmd.ChatID)
	case "sign":
		if args == "" {
			return a.prompt(ctx, cmd.ChatID, tginfra.StateWaitingSignature, ui.AskSignature)
		}
		return a.saveSignature(ctx, cmd.ChatID, cmd.UserID, tginfra.RenderHTML(args, nil))
	case "remove_admin":
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return a.reply(ctx, cmd.ChatID, ui.AdminRemoveUsage, nil)
		}
		removed, err := a.directory.Remove(ctx, id)
		if err != nil {
			return fmt.Errorf("remove admin %d: %w", id, err)
		}
		a.logger.Info("admin removed", zap.Int64("admin_id", id), zap.Int64("by", cmd.UserID), zap.Bool("found", removed))
		return a.reply(ctx, cmd.ChatID, ui.AdminRemoved(id, removed), nil)
	default:
		return nil
	}
}

func (a *App) handleText(ctx context.Context, upd tginfra.TextUpdate) error {
	allowed, err := a.directory.IsAdmin(ctx, upd.UserID)
	if err != nil || !allowed {
		return err
	}

	if upd.Text == ui.ButtonCancel {
		a.setState(upd.ChatID, tginfra.StateIdle)
		return a.reply(ctx, upd.ChatID, ui.ActionCanceled, ui.AdminMenu())
	}

	switch a.takeState(upd.ChatID) {
	case tginfra.StateWaitingAddTags:
		return a.addTags(ctx, upd.ChatID, upd.Text)
	case tginfra.StateWaitingRemoveTag:
		return a.removeTags(ctx, upd.ChatID, upd.Text)
	case tginfra.StateWaitingSignature:
		return a.saveSignature(ctx, upd.ChatID, upd.UserID, upd.HTML)
	case tginfra.StateWaitingGroupPost:
		return a.copyToGroup(ctx, upd.ChatID, upd.MessageID)
	}

	switch upd.Text {
	case ui.ButtonAddTags:
		return a.prompt(ctx, upd.ChatID, tginfra.StateWaitingAddTags, ui.AskAddTags)
	case ui.ButtonRemoveTags:
		if err := a.prompt(ctx, upd.ChatID, tginfra.StateWaitingRemoveTag, ui.AskRemoveTags); err != nil {
			return err
		}
		return a.listTags(ctx, upd.ChatID)
	case ui.ButtonListTags:
		return a.listTags(ctx, upd.ChatID)
	case ui.ButtonSignature:
		return a.prompt(ctx, upd.ChatID, tginfra.StateWaitingSignature, ui.AskSignature)
	case ui.ButtonGroupPost:
		return a.prompt(ctx, upd.ChatID, tginfra.StateWaitingGroupPost, ui.AskGroupPost)
	default:
		return nil
	}
}

// handlePrivateMessage only matters while an admin is composing a group post.
func (a *App) handlePrivateMessage(ctx context.Context, ref tginfra.MessageRef) error {
	if a.state(ref.ChatID) != tginfra.StateWaitingGroupPost {
		return nil
	}
	allowed, err := a.directory.IsAdmin(ctx, ref.UserID)
	if err != nil || !allowed {
		return err
	}
	a.setState(ref.ChatID, tginfra.StateIdle)
	return a.copyToGroup(ctx, ref.ChatID, ref.MessageID)
}

// handleContact registers the shared contact as a new administrator.
func (a *App) handleContact(ctx context.Context, upd tginfra.ContactUpdate) error {
	allowed, err := a.directory.IsAdmin(ctx, upd.UserID)
	if err != nil || !allowed {
		return err
	}
	if upd.ContactID == 0 {
		return a.reply(ctx, upd.ChatID, "Контакт не привязан к аккаунту Telegram.", nil)
	}

	name := strings.TrimSpace(upd.FirstName + " " + upd.LastName)
	if err := a.directory.Add(ctx, upd.ContactID, name); err != nil {
		return fmt.Errorf("add admin %d: %w", upd.ContactID, err)
	}
	a.logger.Info("admin added", zap.Int64("admin_id", upd.ContactID), zap.Int64("by", upd.UserID))
	return a.reply(ctx, upd.ChatID, ui.AdminAdded(upd.ContactID, name), nil)
}

func (a *App) handleCallback(ctx context.Context, cb tginfra.CallbackUpdate) error {
	answer := ""
	defer func() {
		if err := a.tg.AnswerCallback(ctx, cb.CallbackID, answer); err != nil {
			a.logger.Warn("answer callback", zap.Error(err))
		}
	}()

	allowed, err := a.directory.IsAdmin(ctx, cb.UserID)
	if err != nil {
		return err
	}
	if !allowed {
		answer = ui.NoAccess
		return nil
	}

	parsed, ok := relay.ParseCallback(cb.Data)
	if !ok {
		a.logger.Debug("unknown callback", zap.String("data", cb.Data))
		return nil
	}

	key := model.CopyKey{ChatID: cb.ChatID, MessageID: cb.MessageID}
	err = a.review(ctx, key, parsed)
	switch {
	case errors.Is(err, review.ErrInvalidTransition):
		answer = ui.ActionUnavailable
		a.logger.Debug("review action rejected", zap.Stringer("copy", key), zap.Error(err))
		return nil
	case err != nil:
		answer = ui.ActionFailed
		return err
	}
	return nil
}

func (a *App) review(ctx context.Context, key model.CopyKey, cb relay.Callback) error {
	switch cb.Action {
	case relay.CallbackAccept:
		return a.controller.Accept(ctx, key)
	case relay.CallbackDecline:
		if cb.Arg == "" {
			return a.controller.RequestDecline(ctx, key)
		}
		return a.controller.Decline(ctx, key, cb.Arg)
	case relay.CallbackReset:
		return a.controller.Reset(ctx, key)
	case relay.CallbackFinish:
		return a.controller.Finish(ctx, key)
	case relay.CallbackTag:
		return a.controller.ToggleTag(ctx, key, cb.TagID())
	case relay.CallbackKeep:
		return a.controller.KeepCopy(ctx, key)
	default:
		return nil
	}
}

// publicTags answers /tags in the group at most once per cooldown and keeps
// only the latest list visible.
func (a *App) publicTags(ctx context.Context, cmd tginfra.CommandUpdate) error {
	if err := a.tg.Delete(ctx, cmd.ChatID, cmd.MessageID); err != nil {
		a.logger.Warn("delete tags command", zap.Error(err))
	}

	chat := strconv.FormatInt(cmd.ChatID, 10)
	fresh, err := a.flags.SetOnce(ctx, tagsCooldownPrefix+chat, "1", a.cfg.Relay.TagsCooldown)
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	last, ok, err := a.flags.Get(ctx, tagsLastPrefix+chat)
	if err != nil {
		return err
	}
	if id, convErr := strconv.Atoi(last); ok && convErr == nil {
		if err := a.tg.Delete(ctx, cmd.ChatID, id); err != nil {
			a.logger.Debug("delete previous tag list", zap.Error(err))
		}
	}

	catalog, err := a.registry.All(ctx)
	if err != nil {
		return err
	}
	id, err := a.tg.Send(ctx, cmd.ChatID, model.OutgoingMessage{
		Kind:           enums.ContentKindText,
		Body:           ui.PublicTagList(catalog),
		DisablePreview: true,
		Plain:          true,
	})
	if err != nil {
		return err
	}
	return a.flags.Set(ctx, tagsLastPrefix+chat, strconv.Itoa(id), tagsLastTTL)
}

func (a *App) addTags(ctx context.Context, chatID int64, input string) error {
	var added []string
	for _, raw := range tags.ParseList(input) {
		tag, ok, err := a.registry.Add(ctx, raw)
		if err != nil {
			return err
		}
		if ok {
			added = append(added, tag.Tag)
		}
	}
	a.logger.Info("tags added", zap.Strings("tags", added))
	return a.reply(ctx, chatID, ui.TagsAdded(added), ui.AdminMenu())
}

func (a *App) removeTags(ctx context.Context, chatID int64, input string) error {
	var removed []string
	for _, raw := range tags.ParseList(input) {
		ok, err := a.registry.Remove(ctx, raw)
		if err != nil {
			return err
		}
		if ok {
			removed = append(removed, tags.Normalize(raw))
		}
	}
	a.logger.Info("tags removed", zap.Strings("tags", removed))
	return a.reply(ctx, chatID, ui.TagsRemoved(removed), ui.AdminMenu())
}

func (a *App) listTags(ctx context.Context, chatID int64) error {
	catalog, err := a.registry.All(ctx)
	if err != nil {
		return err
	}
	return a.reply(ctx, chatID, ui.AdminTagList(catalog), nil)
}

func (a *App) saveSignature(ctx context.Context, chatID, adminID int64, signature string) error {
	if err := a.directory.SetSignature(ctx, adminID, signature); err != nil {
		return fmt.Errorf("set signature of %d: %w", adminID, err)
	}
	return a.reply(ctx, chatID, ui.SignatureUpdated, ui.AdminMenu())
}

func (a *App) copyToGroup(ctx context.Context, chatID int64, messageID int) error {
	if _, err := a.tg.Copy(ctx, a.cfg.Relay.GroupChatID, chatID, messageID); err != nil {
		a.logger.Warn("copy admin post to group", zap.Int64("chat_id", chatID), zap.Error(err))
		return a.reply(ctx, chatID, ui.PostCopyFailed, ui.AdminMenu())
	}
	return a.reply(ctx, chatID, ui.PostCopied, ui.AdminMenu())
}

func (a *App) prompt(ctx context.Context, chatID int64, state tginfra.State, text string) error {
	a.setState(chatID, state)
	return a.reply(ctx, chatID, text, ui.CancelMenu())
}

// reply sends text with the given reply keyboard; nil rows leave the
// current keyboard in place.
func (a *App) reply(ctx context.Context, chatID int64, text string, rows [][]string) error {
	var markup interface{}
	if rows != nil {
		markup = tginfra.BuildReplyKeyboard(rows)
	}
	return a.tg.SendReply(ctx, chatID, text, markup)
}

func (a *App) state(chatID int64) tginfra.State {
	a.inputMu.Lock()
	defer a.inputMu.Unlock()

	if state, ok := a.inputByChat[chatID]; ok {
		return state
	}
	return tginfra.StateIdle
}

func (a *App) setState(chatID int64, state tginfra.State) {
	a.inputMu.Lock()
	defer a.inputMu.Unlock()

	if state == tginfra.StateIdle {
		delete(a.inputByChat, chatID)
		return
	}
	a.inputByChat[chatID] = state
}

// takeState returns the pending input state and resets the chat to idle.
func (a *App) takeState(chatID int64) tginfra.State {
	a.inputMu.Lock()
	defer a.inputMu.Unlock()

	state, ok := a.inputByChat[chatID]
	if !ok {
		return tginfra.StateIdle
	}
	delete(a.inputByChat, chatID)
	return state
}
