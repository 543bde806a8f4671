package admins

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

var ErrInvalidAdmin = errors.New("invalid admin")

type Repo interface {
	List(ctx context.Context) ([]model.Admin, error)
	ByID(ctx context.Context, id int64) (model.Admin, error)
	Upsert(ctx context.Context, id int64, displayName string) error
	Delete(ctx context.Context, id int64) (bool, error)
	UpdateSignature(ctx context.Context, id int64, signature string) error
}

// Directory is the set of people who receive review copies.
type Directory struct {
	repo     Repo
	notFound error
}

// NewDirectory takes the repo sentinel returned by ByID for unknown admins.
func NewDirectory(repo Repo, notFound error) *Directory {
	return &Directory{repo: repo, notFound: notFound}
}

func (d *Directory) List(ctx context.Context) ([]model.Admin, error) {
	list, err := d.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return list, nil
}

// Get returns false for unknown ids.
func (d *Directory) Get(ctx context.Context, id int64) (model.Admin, bool, error) {
	admin, err := d.repo.ByID(ctx, id)
	if err != nil {
		if d.notFound != nil && errors.Is(err, d.notFound) {
			return model.Admin{}, false, nil
		}
		return model.Admin{}, false, fmt.Errorf("get admin %d: %w", id, err)
	}
	return admin, true, nil
}

func (d *Directory) IsAdmin(ctx context.Context, id int64) (bool, error) {
	_, ok, err := d.Get(ctx, id)
	return ok, err
}

func (d *Directory) Add(ctx context.Context, id int64, displayName string) error {
	if id <= 0 {
		return ErrInvalidAdmin
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = fmt.Sprintf("admin %d", id)
	}
	return d.repo.Upsert(ctx, id, displayName)
}

func (d *Directory) Remove(ctx context.Context, id int64) (bool, error) {
	return d.repo.Delete(ctx, id)
}

// SetSignature stores an already rendered HTML signature.
func (d *Directory) SetSignature(ctx context.Context, id int64, signature string) error {
	return d.repo.UpdateSignature(ctx, id, strings.TrimSpace(signature))
}
