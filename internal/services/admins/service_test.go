package admins

import (
	"context"
	"errors"
	"testing"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

var errStubNotFound = errors.New("stub: not found")

type repoStub struct {
	admins map[int64]model.Admin
}

func (s *repoStub) List(_ context.Context) ([]model.Admin, error) {
	out := make([]model.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a)
	}
	return out, nil
}

func (s *repoStub) ByID(_ context.Context, id int64) (model.Admin, error) {
	a, ok := s.admins[id]
	if !ok {
		return model.Admin{}, errStubNotFound
	}
	return a, nil
}

func (s *repoStub) Upsert(_ context.Context, id int64, displayName string) error {
	a := s.admins[id]
	a.ID = id
	a.DisplayName = displayName
	s.admins[id] = a
	return nil
}

func (s *repoStub) Delete(_ context.Context, id int64) (bool, error) {
	_, ok := s.admins[id]
	delete(s.admins, id)
	return ok, nil
}

func (s *repoStub) UpdateSignature(_ context.Context, id int64, signature string) error {
	a, ok := s.admins[id]
	if !ok {
		return errStubNotFound
	}
	a.Signature = signature
	s.admins[id] = a
	return nil
}

func TestDirectoryLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(&repoStub{admins: make(map[int64]model.Admin)}, errStubNotFound)

	if err := dir.Add(ctx, 7, "  "); err != nil {
		t.Fatalf("add: %v", err)
	}
	admin, ok, err := dir.Get(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if admin.DisplayName != "admin 7" {
		t.Fatalf("unexpected default display name: %q", admin.DisplayName)
	}

	if err := dir.SetSignature(ctx, 7, " <b>Ivan</b> "); err != nil {
		t.Fatalf("set signature: %v", err)
	}
	admin, _, _ = dir.Get(ctx, 7)
	if admin.Signature != "<b>Ivan</b>" {
		t.Fatalf("unexpected signature: %q", admin.Signature)
	}

	removed, err := dir.Remove(ctx, 7)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	isAdmin, err := dir.IsAdmin(ctx, 7)
	if err != nil || isAdmin {
		t.Fatalf("expected unknown admin without error, got %v err=%v", isAdmin, err)
	}
}

func TestDirectoryRejectsInvalidID(t *testing.T) {
	dir := NewDirectory(&repoStub{admins: make(map[int64]model.Admin)}, errStubNotFound)
	if err := dir.Add(context.Background(), 0, "x"); !errors.Is(err, ErrInvalidAdmin) {
		t.Fatalf("expected ErrInvalidAdmin, got %v", err)
	}
}
