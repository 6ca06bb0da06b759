// Package list owns the ordered to-do items and their persistence.
//
// The whole list is stored as one JSON array under a single key of a
// backend.KeyValueStore. Every mutating call persists before it returns, so
// the stored bytes always mirror memory.
package list

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"todolist/backend"
	"todolist/internal/item"
	"todolist/internal/utils"
)

// DefaultKey is the storage key the list is persisted under.
const DefaultKey = "myList"

// record is the persisted shape of one item.
type record struct {
	ID      string `json:"_id"`
	Text    string `json:"_item"`
	Checked bool   `json:"_checked"`
}

// Store is the single source of truth for the list. Create one per process
// and pass it to the components that need it.
type Store struct {
	mu    sync.Mutex
	kv    backend.KeyValueStore
	key   string
	items []*item.Item
	log   *utils.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *utils.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an empty store persisting to kv. Call Load to pick up
// previously saved items.
func New(kv backend.KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		key: DefaultKey,
		log: utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Items returns the current items in insertion order. The slice is a copy,
// the items are live: edit a field in place, then call Save.
func (s *Store) Items() []*item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*item.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns the first item with the given id, or nil.
func (s *Store) Get(id string) *item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// NextID returns the id for a newly entered item: the last item's id plus
// one, or "1" for an empty list. When the last id is not numeric, or its
// successor is already taken, the largest numeric id plus one is used.
// Ids that do not parse as integers are skipped.
func (s *Store) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]bool, len(s.items))
	highest := 0
	for _, it := range s.items {
		taken[it.ID] = true
		if n, err := strconv.Atoi(it.ID); err == nil && n > highest {
			highest = n
		}
	}

	if len(s.items) > 0 {
		if last, err := strconv.Atoi(s.items[len(s.items)-1].ID); err == nil {
			if next := strconv.Itoa(last + 1); !taken[next] {
				return next
			}
		}
	}
	return strconv.Itoa(highest + 1)
}

// Add appends it and persists. The text is not validated here.
func (s *Store) Add(ctx context.Context, it *item.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.items
	s.items = append(s.items, it)
	return s.commitLocked(ctx, func() { s.items = prev })
}

// Remove drops the item with the given id and persists. An unknown id
// leaves the list unchanged but is still persisted.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.items
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			break
		}
	}
	return s.commitLocked(ctx, func() { s.items = prev })
}

// Clear empties the list and persists an empty array.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.items
	s.items = nil
	return s.commitLocked(ctx, func() { s.items = prev })
}

// SetChecked sets the checked state of the item with the given id and
// persists. It reports false, without writing, when no item matches.
func (s *Store) SetChecked(ctx context.Context, id string, checked bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ID == id {
			prev := it.Checked
			it.Checked = checked
			return true, s.commitLocked(ctx, func() { it.Checked = prev })
		}
	}
	return false, nil
}

// Save writes the current items under the storage key.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// commitLocked persists a mutation, undoing it when the write fails so memory
// keeps matching storage.
func (s *Store) commitLocked(ctx context.Context, undo func()) error {
	if err := s.saveLocked(ctx); err != nil {
		undo()
		return err
	}
	return nil
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := encode(s.items)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to save list: %w", err)
	}
	s.log.Debug("saved %d items under %q", len(s.items), s.key)
	return nil
}

// Load reads the storage key and appends the stored items after any already
// in memory. Loading twice therefore duplicates them. A missing or empty
// value is a no-op. Stored bytes that are not a list of items yield a
// *PersistedDataError and leave memory untouched.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to read list: %w", err)
	}
	if !found || len(data) == 0 {
		s.log.Debug("no stored list under %q", s.key)
		return nil
	}

	loaded, err := decode(data)
	if err != nil {
		return &PersistedDataError{Key: s.key, Err: err}
	}
	s.items = append(s.items, loaded...)
	s.log.Debug("loaded %d items from %q", len(loaded), s.key)
	return nil
}

// Reload replaces the in-memory items with whatever is stored now. Unlike
// Load it never duplicates. Unreadable stored bytes yield a
// *PersistedDataError and leave memory untouched.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to read list: %w", err)
	}
	if !found || len(data) == 0 {
		s.items = nil
		return nil
	}

	loaded, err := decode(data)
	if err != nil {
		return &PersistedDataError{Key: s.key, Err: err}
	}
	s.items = loaded
	s.log.Debug("reloaded %d items from %q", len(loaded), s.key)
	return nil
}

func encode(items []*item.Item) ([]byte, error) {
	records := make([]record, 0, len(items))
	for _, it := range items {
		records = append(records, record{ID: it.ID, Text: it.Text, Checked: it.Checked})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]*item.Item, error) {
	if err := validateRecords(data); err != nil {
		return nil, err
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	items := make([]*item.Item, 0, len(records))
	for _, r := range records {
		items = append(items, item.New(r.ID, r.Text, r.Checked))
	}
	return items, nil
}
