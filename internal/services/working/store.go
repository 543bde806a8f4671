package working

import (
	"context"
	"errors"
	"time"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

var (
	ErrNotFound      = errors.New("working record not found")
	ErrAlreadyExists = errors.New("working record already exists")
	// ErrStateConflict means the record moved on since it was read.
	ErrStateConflict = errors.New("working record state changed concurrently")
)

// Patch is a partial update. Nil fields are left as they are.
type Patch struct {
	Tags   *[]string
	Status *enums.RecordStatus
	State  *enums.ReviewState
	// ExpectState turns the update into a compare-and-swap on the review state.
	ExpectState *enums.ReviewState
}

// Transition builds the patch that moves prev to next under compare-and-swap.
func Transition(prev, next model.WorkingRecord) Patch {
	tags := append([]string{}, next.Tags...)
	expect := prev.State
	return Patch{
		Tags:        &tags,
		Status:      &next.Status,
		State:       &next.State,
		ExpectState: &expect,
	}
}

type Store interface {
	Insert(ctx context.Context, rec model.WorkingRecord) error
	Get(ctx context.Context, key model.CopyKey) (model.WorkingRecord, error)
	Update(ctx context.Context, key model.CopyKey, patch Patch) (model.WorkingRecord, error)
	Remove(ctx context.Context, key model.CopyKey) error
	ListByPost(ctx context.Context, postID string) ([]model.WorkingRecord, error)
	RemoveByPost(ctx context.Context, postID string) ([]model.CopyKey, error)
}

// FlagStore keeps short-lived markers such as command cooldowns and
// "keep this copy" requests.
type FlagStore interface {
	SetOnce(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}
