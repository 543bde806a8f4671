package bans

import (
	"context"
	"testing"
	"time"
)

type repoStub struct {
	bans map[string]time.Time
}

func (s *repoStub) Ban(_ context.Context, senderID string, at time.Time) error {
	s.bans[senderID] = at
	return nil
}

func (s *repoStub) BannedSince(_ context.Context, senderID string, since time.Time) (bool, error) {
	at, ok := s.bans[senderID]
	return ok && at.After(since), nil
}

func (s *repoStub) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, at := range s.bans {
		if !at.After(cutoff) {
			delete(s.bans, id)
			n++
		}
	}
	return n, nil
}

func TestBanWindow(t *testing.T) {
	ctx := context.Background()
	repo := &repoStub{bans: make(map[string]time.Time)}
	svc := NewService(repo, 7, nil)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.Ban(ctx, "42"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	now = now.Add(6 * 24 * time.Hour)
	banned, err := svc.IsBanned(ctx, "42")
	if err != nil || !banned {
		t.Fatalf("expected banned after 6 days, got %v err=%v", banned, err)
	}

	now = now.Add(2 * 24 * time.Hour)
	banned, err = svc.IsBanned(ctx, "42")
	if err != nil || banned {
		t.Fatalf("expected ban to lapse after 8 days, got %v err=%v", banned, err)
	}

	purged, err := svc.PurgeExpired(ctx)
	if err != nil || purged != 1 {
		t.Fatalf("expected one purged ban, got %d err=%v", purged, err)
	}
}

func TestZeroWindowDisablesBans(t *testing.T) {
	ctx := context.Background()
	repo := &repoStub{bans: make(map[string]time.Time)}
	svc := NewService(repo, 0, nil)

	if err := svc.Ban(ctx, "42"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if len(repo.bans) != 0 {
		t.Fatalf("expected no stored bans, got %v", repo.bans)
	}
	if banned, _ := svc.IsBanned(ctx, "42"); banned {
		t.Fatalf("expected not banned")
	}
}
