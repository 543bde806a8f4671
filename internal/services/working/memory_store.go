package working

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

// MemoryStore is the in-process Store. Records are cloned on the way in and
// out so callers never share tag slices with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	byKey  map[model.CopyKey]model.WorkingRecord
	byPost map[string]map[model.CopyKey]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:  make(map[model.CopyKey]model.WorkingRecord),
		byPost: make(map[string]map[model.CopyKey]struct{}),
	}
}

func (m *MemoryStore) Insert(_ context.Context, rec model.WorkingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byKey[rec.Key]; ok {
		return ErrAlreadyExists
	}
	m.byKey[rec.Key] = rec.Clone()
	if rec.PostID != "" {
		keys, ok := m.byPost[rec.PostID]
		if !ok {
			keys = make(map[model.CopyKey]struct{})
			m.byPost[rec.PostID] = keys
		}
		keys[rec.Key] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key model.CopyKey) (model.WorkingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byKey[key]
	if !ok {
		return model.WorkingRecord{}, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, key model.CopyKey, patch Patch) (model.WorkingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byKey[key]
	if !ok {
		return model.WorkingRecord{}, ErrNotFound
	}
	if patch.ExpectState != nil && rec.State != *patch.ExpectState {
		return model.WorkingRecord{}, ErrStateConflict
	}

	if patch.Tags != nil {
		rec.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.State != nil {
		rec.State = *patch.State
	}
	m.byKey[key] = rec
	return rec.Clone(), nil
}

func (m *MemoryStore) Remove(_ context.Context, key model.CopyKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byKey[key]
	if !ok {
		return ErrNotFound
	}
	delete(m.byKey, key)
	if keys, ok := m.byPost[rec.PostID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.byPost, rec.PostID)
		}
	}
	return nil
}

func (m *MemoryStore) ListByPost(_ context.Context, postID string) ([]model.WorkingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := m.byPost[postID]
	out := make([]model.WorkingRecord, 0, len(keys))
	for key := range keys {
		out = append(out, m.byKey[key].Clone())
	}
	sortRecords(out)
	return out, nil
}

func (m *MemoryStore) RemoveByPost(_ context.Context, postID string) ([]model.CopyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.byPost[postID]
	out := make([]model.CopyKey, 0, len(keys))
	for key := range keys {
		delete(m.byKey, key)
		out = append(out, key)
	}
	delete(m.byPost, postID)
	sortKeys(out)
	return out, nil
}

func sortRecords(recs []model.WorkingRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return keyLess(recs[i].Key, recs[j].Key)
	})
}

func sortKeys(keys []model.CopyKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keyLess(keys[i], keys[j])
	})
}

func keyLess(a, b model.CopyKey) bool {
	if a.ChatID != b.ChatID {
		return a.ChatID < b.ChatID
	}
	return a.MessageID < b.MessageID
}

type flagEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryFlags is the in-process FlagStore.
type MemoryFlags struct {
	mu    sync.Mutex
	items map[string]flagEntry
	now   func() time.Time
}

func NewMemoryFlags() *MemoryFlags {
	return &MemoryFlags{items: make(map[string]flagEntry), now: time.Now}
}

func (f *MemoryFlags) SetOnce(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.lookup(key); ok {
		return false, nil
	}
	f.items[key] = flagEntry{value: value, expiresAt: f.now().Add(ttl)}
	return true, nil
}

func (f *MemoryFlags) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[key] = flagEntry{value: value, expiresAt: f.now().Add(ttl)}
	return nil
}

func (f *MemoryFlags) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.lookup(key)
	return entry.value, ok, nil
}

func (f *MemoryFlags) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.items, key)
	return nil
}

// lookup drops expired entries lazily. Callers hold the lock.
func (f *MemoryFlags) lookup(key string) (flagEntry, bool) {
	entry, ok := f.items[key]
	if !ok {
		return flagEntry{}, false
	}
	if !f.now().Before(entry.expiresAt) {
		delete(f.items, key)
		return flagEntry{}, false
	}
	return entry, true
}
