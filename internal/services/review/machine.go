package review

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

var ErrInvalidTransition = errors.New("invalid review transition")

type Action string

const (
	ActionAccept         Action = "accept"
	ActionToggleTag      Action = "toggle_tag"
	ActionFinish         Action = "finish"
	ActionPublish        Action = "publish"
	ActionAbortPublish   Action = "abort_publish"
	ActionRequestDecline Action = "request_decline"
	ActionDecline        Action = "decline"
	ActionCancelDecline  Action = "cancel_decline"
	ActionReset          Action = "reset"
)

type TransitionError struct {
	Action Action
	From   enums.ReviewState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed from state %s", e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func reject(rec model.WorkingRecord, action Action) (model.WorkingRecord, error) {
	return rec, &TransitionError{Action: action, From: rec.State}
}

// pending reports whether the record still awaits a decision. The status
// check keeps a record from ever leaving PENDING twice.
func pending(rec model.WorkingRecord) bool {
	return rec.Status == enums.RecordStatusPending && !rec.State.Terminal()
}

func Accept(rec model.WorkingRecord) (model.WorkingRecord, error) {
	if !pending(rec) || rec.State != enums.ReviewStatePending {
		return reject(rec, ActionAccept)
	}
	next := rec.Clone()
	next.State = enums.ReviewStateAwaitingTagSelection
	return next, nil
}

// ToggleTag adds the tag when absent and removes it when present.
func ToggleTag(rec model.WorkingRecord, tag string) (model.WorkingRecord, error) {
	if !pending(rec) || !rec.State.Tagging() || tag == "" {
		return reject(rec, ActionToggleTag)
	}

	next := rec.Clone()
	tags := make([]string, 0, len(rec.Tags)+1)
	found := false
	for _, t := range rec.Tags {
		if t == tag {
			found = true
			continue
		}
		tags = append(tags, t)
	}
	if !found {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	next.Tags = tags
	next.State = enums.ReviewStateTagToggled
	return next, nil
}

func Finish(rec model.WorkingRecord) (model.WorkingRecord, error) {
	if !pending(rec) || !rec.State.Tagging() {
		return reject(rec, ActionFinish)
	}
	next := rec.Clone()
	next.State = enums.ReviewStateReadyToPublish
	return next, nil
}

func Publish(rec model.WorkingRecord) (model.WorkingRecord, error) {
	if !pending(rec) || rec.State != enums.ReviewStateReadyToPublish {
		return reject(rec, ActionPublish)
	}
	next := rec.Clone()
	next.State = enums.ReviewStatePublished
	next.Status = enums.RecordStatusAccepted
	return next, nil
}

// AbortPublish is the single-step undo used when publication fails.
func AbortPublish(rec model.WorkingRecord) (model.WorkingRecord, error) {
	if !pending(rec) || rec.State != enums.ReviewStateReadyToPublish {
		return reject(rec, ActionAbortPublish)
	}
	next := rec.Clone()
	next.State = enums.ReviewStateTagToggled
	return next, nil
}

func RequestDecline(rec model.WorkingRecord) (model.WorkingRecord, error) {
	if !pending(rec) || rec.State != enums.ReviewStatePending {
		return reject(rec, ActionRequestDecline)
	}
	next := rec.Clone()
	next.State = enums.ReviewStateAwaitingDeclineReason
	return next, nil
}

func Decline(rec model.WorkingRecord, reason Reason) (model.WorkingRecord, error) {
	if !pending(rec) || reason.Code == "" || reason.Code == ReasonCancel {
		return reject(rec, ActionDecline)
	}
	if rec.State != enums.ReviewStatePending && rec.State != enums.ReviewStateAwaitingDeclineReason {
		return reject(rec, ActionDecline)
	}
	next := rec.Clone()
	next.State = enums.ReviewStateDeclined
	next.Status = enums.RecordStatusDeclined
	return next, nil
}

func CancelDecline(rec model.WorkingRecord) (model.WorkingRecord, error) {
	if !pending(rec) || rec.State != enums.ReviewStateAwaitingDeclineReason {
		return reject(rec, ActionCancelDecline)
	}
	next := rec.Clone()
	next.State = enums.ReviewStatePending
	return next, nil
}

func Reset(rec model.WorkingRecord) (model.WorkingRecord, error) {
	if !pending(rec) || !rec.State.Tagging() {
		return reject(rec, ActionReset)
	}
	next := rec.Clone()
	next.Tags = nil
	next.State = enums.ReviewStatePending
	return next, nil
}
