package tags

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

const Marker = "#"

type Repo interface {
	Upsert(ctx context.Context, tag string) (model.Tag, error)
	Delete(ctx context.Context, tag string) (bool, error)
	List(ctx context.Context) ([]model.Tag, error)
	ByID(ctx context.Context, id int64) (model.Tag, error)
}

type Registry struct {
	repo Repo
}

func NewRegistry(repo Repo) *Registry {
	return &Registry{repo: repo}
}

// Add stores the canonical form of raw. The bool is false when raw has no
// word characters left after normalization. Re-adding returns the stored tag.
func (r *Registry) Add(ctx context.Context, raw string) (model.Tag, bool, error) {
	tag := Normalize(raw)
	if tag == "" {
		return model.Tag{}, false, nil
	}

	stored, err := r.repo.Upsert(ctx, tag)
	if err != nil {
		return model.Tag{}, false, fmt.Errorf("add tag %q: %w", tag, err)
	}
	return stored, true, nil
}

func (r *Registry) Remove(ctx context.Context, raw string) (bool, error) {
	tag := Normalize(raw)
	if tag == "" {
		return false, nil
	}

	removed, err := r.repo.Delete(ctx, tag)
	if err != nil {
		return false, fmt.Errorf("remove tag %q: %w", tag, err)
	}
	return removed, nil
}

// All returns the catalog sorted by tag.
func (r *Registry) All(ctx context.Context) ([]model.Tag, error) {
	list, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Tag < list[j].Tag })
	return list, nil
}

func (r *Registry) ByID(ctx context.Context, id int64) (model.Tag, error) {
	return r.repo.ByID(ctx, id)
}

// Normalize maps free-form input to the canonical tag: words are title-cased
// and glued together, leading digits dropped, and the marker prepended.
func Normalize(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return !isWordRune(r)
	})

	for len(words) > 0 {
		words[0] = strings.TrimLeftFunc(words[0], func(r rune) bool {
			return unicode.IsDigit(r) || r == '_'
		})
		if words[0] != "" {
			break
		}
		words = words[1:]
	}
	if len(words) == 0 {
		return ""
	}

	title := cases.Title(language.Und)
	var b strings.Builder
	b.WriteString(Marker)
	for _, w := range words {
		b.WriteString(title.String(w))
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// ParseList splits admin input such as "#sale, auto  дом" into raw tags.
func ParseList(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || unicode.IsSpace(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
