package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/working"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, client
}

func sampleRecord(chatID int64, msgID int, postID string) model.WorkingRecord {
	return model.WorkingRecord{
		Key:          model.CopyKey{ChatID: chatID, MessageID: msgID},
		PostID:       postID,
		AdminID:      chatID,
		Kind:         enums.ContentKindPhoto,
		Body:         "Продам <b>диван</b>",
		MediaID:      "AgACAgIAAx0",
		OriginChatID: -1001,
		Sender:       model.SenderDescriptor{ChatID: "42", VerboseName: "Ivan", IsUser: true},
		Signature:    "Олег",
		Status:       enums.RecordStatusPending,
		State:        enums.ReviewStatePending,
		CreatedAt:    time.Unix(1700000000, 0).UTC(),
	}
}

func TestWorkingRepoRoundTrip(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	repo := NewWorkingRepo(client, time.Hour)
	rec := sampleRecord(100, 7, "post-1")

	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Insert(ctx, rec); !errors.Is(err, working.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.Get(ctx, rec.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PostID != rec.PostID || got.Body != rec.Body || got.MediaID != rec.MediaID || got.Kind != rec.Kind {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if got.Sender != rec.Sender || got.Signature != rec.Signature || got.OriginChatID != rec.OriginChatID {
		t.Fatalf("unexpected sender data: %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) || got.Tags != nil {
		t.Fatalf("unexpected created_at/tags: %v %v", got.CreatedAt, got.Tags)
	}

	if ttl := mr.TTL(copyKey(rec.Key)); ttl != time.Hour {
		t.Fatalf("unexpected record ttl: %s", ttl)
	}

	if _, err := repo.Get(ctx, model.CopyKey{ChatID: 1, MessageID: 1}); !errors.Is(err, working.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkingRepoUpdateCompareAndSwap(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	repo := NewWorkingRepo(client, time.Hour)
	rec := sampleRecord(100, 7, "post-1")
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	next := rec.Clone()
	next.State = enums.ReviewStateTagToggled
	next.Tags = []string{"#Sale"}

	updated, err := repo.Update(ctx, rec.Key, working.Transition(rec, next))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.State != enums.ReviewStateTagToggled || len(updated.Tags) != 1 || updated.Tags[0] != "#Sale" {
		t.Fatalf("unexpected updated record: %+v", updated)
	}

	if _, err := repo.Update(ctx, rec.Key, working.Transition(rec, next)); !errors.Is(err, working.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}

	status := enums.RecordStatusDeclined
	updated, err = repo.Update(ctx, rec.Key, working.Patch{Status: &status})
	if err != nil {
		t.Fatalf("partial update: %v", err)
	}
	if updated.Status != enums.RecordStatusDeclined || updated.State != enums.ReviewStateTagToggled {
		t.Fatalf("partial update must merge fields: %+v", updated)
	}

	if _, err := repo.Update(ctx, model.CopyKey{ChatID: 5, MessageID: 5}, working.Patch{Status: &status}); !errors.Is(err, working.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkingRepoSiblingsAndRemoval(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	repo := NewWorkingRepo(client, time.Hour)
	for _, rec := range []model.WorkingRecord{
		sampleRecord(200, 3, "post-1"),
		sampleRecord(100, 3, "post-1"),
		sampleRecord(100, 4, "post-2"),
	} {
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	siblings, err := repo.ListByPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("list by post: %v", err)
	}
	if len(siblings) != 2 || siblings[0].Key.ChatID != 100 {
		t.Fatalf("unexpected siblings: %+v", siblings)
	}

	if err := repo.Remove(ctx, model.CopyKey{ChatID: 200, MessageID: 3}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := repo.Remove(ctx, model.CopyKey{ChatID: 200, MessageID: 3}); !errors.Is(err, working.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}

	keys, err := repo.RemoveByPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("remove by post: %v", err)
	}
	if len(keys) != 1 || keys[0] != (model.CopyKey{ChatID: 100, MessageID: 3}) {
		t.Fatalf("unexpected removed keys: %v", keys)
	}
	if mr.Exists(postKey("post-1")) {
		t.Fatalf("post index must be deleted")
	}

	if _, err := repo.Get(ctx, model.CopyKey{ChatID: 100, MessageID: 4}); err != nil {
		t.Fatalf("record of another post must survive: %v", err)
	}
}

func TestWorkingRepoListSkipsExpiredRecords(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	repo := NewWorkingRepo(client, time.Hour)
	rec := sampleRecord(100, 3, "post-1")
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	mr.Del(copyKey(rec.Key))

	siblings, err := repo.ListByPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("list by post: %v", err)
	}
	if len(siblings) != 0 {
		t.Fatalf("expected expired record to be skipped, got %d", len(siblings))
	}
}

func TestFlagRepo(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	repo := NewFlagRepo(client)

	ok, err := repo.SetOnce(ctx, "cooldown:tags", "55", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetOnce should win: ok=%v err=%v", ok, err)
	}
	ok, err = repo.SetOnce(ctx, "cooldown:tags", "56", time.Minute)
	if err != nil || ok {
		t.Fatalf("second SetOnce should lose: ok=%v err=%v", ok, err)
	}

	value, found, err := repo.Get(ctx, "cooldown:tags")
	if err != nil || !found || value != "55" {
		t.Fatalf("unexpected flag: %q found=%v err=%v", value, found, err)
	}

	mr.FastForward(61 * time.Second)
	if _, found, _ := repo.Get(ctx, "cooldown:tags"); found {
		t.Fatalf("flag must expire after ttl")
	}

	if err := repo.Set(ctx, "keep:1:2", "1", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Delete(ctx, "keep:1:2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := repo.Get(ctx, "keep:1:2"); found {
		t.Fatalf("flag must be deleted")
	}

	if _, err := repo.SetOnce(ctx, "", "x", time.Minute); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
