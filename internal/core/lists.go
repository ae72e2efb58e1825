package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rentapp/internal/kv"
	"rentapp/pkg/domain"
)

// Storage keys and list names.
const (
	PropertiesKey       = "rentapp_properties"
	BookmarksList       = "rentapp_bookmarks"
	RecentlyRemovedList = "rentapp_recently_removed_bookmarks"
	FollowUpList        = "rentapp_followup"
	ClosedList          = "rentapp_closed"
	FollowUpNotesList   = "rentapp_followup_notes"
	RegistryKey         = "rentapp_key_registry"
)

// listSpec names a per-user list and how anonymous callers are keyed.
type listSpec struct {
	name string
	// guest keys anonymous callers as {name}_guest; otherwise the bare name is used.
	guest bool
}

func (s listSpec) key(userID string) string {
	switch {
	case userID != "":
		return s.name + "_" + userID
	case s.guest:
		return s.name + "_guest"
	default:
		return s.name
	}
}

var (
	bookmarksSpec       = listSpec{name: BookmarksList, guest: true}
	recentlyRemovedSpec = listSpec{name: RecentlyRemovedList, guest: true}
	followUpSpec        = listSpec{name: FollowUpList}
	closedSpec          = listSpec{name: ClosedList}
	notesSpec           = listSpec{name: FollowUpNotesList, guest: true}
)

// readJSON decodes the value at key into out. A missing key leaves out
// untouched and reports false; undecodable data wraps domain.ErrCorruptData.
func readJSON(ctx context.Context, store kv.Store, key string, out any) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", domain.ErrCorruptData, key, err)
	}
	return true, nil
}

func writeJSON(ctx context.Context, store kv.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// listStore reads and writes per-user JSON lists, recording every key it
// writes in the registry.
type listStore struct {
	store    kv.Store
	registry *KeyRegistry
	logger   Logger
}

// loadList returns userID's list. Undecodable data is reported as an error
// wrapping domain.ErrCorruptData.
func loadList[T any](ctx context.Context, ls listStore, spec listSpec, userID string) ([]T, error) {
	var items []T
	if _, err := readJSON(ctx, ls.store, spec.key(userID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// loadForWrite is loadList for read-modify-write cycles: corrupt data is
// logged and replaced, any other failure aborts the mutation.
func loadForWrite[T any](ctx context.Context, ls listStore, spec listSpec, userID string) ([]T, error) {
	items, err := loadList[T](ctx, ls, spec, userID)
	if errors.Is(err, domain.ErrCorruptData) {
		ls.logger.Warn("discarding corrupt list", "key", spec.key(userID), "error", err)
		return nil, nil
	}
	return items, err
}

func saveList[T any](ctx context.Context, ls listStore, spec listSpec, userID string, items []T) error {
	key := spec.key(userID)
	if items == nil {
		items = []T{}
	}
	if err := writeJSON(ctx, ls.store, key, items); err != nil {
		return err
	}
	if err := ls.registry.Register(ctx, spec.name, key); err != nil {
		ls.logger.Warn("key registry update failed", "key", key, "error", err)
	}
	return nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []string, id string) ([]string, bool) {
	i := indexOf(ids, id)
	if i < 0 {
		return ids, false
	}
	out := make([]string, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...), true
}
