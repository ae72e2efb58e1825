package core

import (
	"context"
	"errors"
	"time"

	"rentapp/internal/kv"
	"rentapp/pkg/domain"
)

// Bookmarks manages each user's saved listings and the history of bookmarks
// they removed.
type Bookmarks struct {
	lists  listStore
	repo   *Repository
	opts   options
	events *Notifier
	mu     lockedSection
}

// NewBookmarks returns a manager joining against repo.
func NewBookmarks(store kv.Store, repo *Repository, registry *KeyRegistry, opts ...Option) *Bookmarks {
	o := buildOptions(opts)
	return &Bookmarks{
		lists:  listStore{store: store, registry: registry, logger: o.logger},
		repo:   repo,
		opts:   o,
		events: NewNotifier(),
	}
}

// Events returns the notifier for bookmarksChanged and recentlyRemovedChanged.
func (b *Bookmarks) Events() *Notifier { return b.events }

func (b *Bookmarks) publish(name domain.EventName, id, userID string) {
	b.events.Publish(domain.Event{Name: name, PropertyID: id, UserID: userID})
}

// Add bookmarks id for userID. It reports false when already bookmarked.
func (b *Bookmarks) Add(ctx context.Context, id, userID string) (bool, error) {
	var added bool
	err := b.opts.instrument(ctx, "bookmarks.add", func(ctx context.Context) error {
		return b.mu.run(func() error {
			ids, err := loadForWrite[string](ctx, b.lists, bookmarksSpec, userID)
			if err != nil || indexOf(ids, id) >= 0 {
				return err
			}
			if err := saveList(ctx, b.lists, bookmarksSpec, userID, append(ids, id)); err != nil {
				return err
			}
			added = true
			return nil
		})
	})
	if err != nil {
		b.opts.logger.Error("bookmark add failed", "id", id, "user", userID, "error", err)
		return false, err
	}
	if added {
		b.publish(domain.EventBookmarksChanged, id, userID)
	}
	return added, nil
}

// Remove drops id from userID's bookmarks and records it in the recently
// removed history, refreshing the timestamp when it is already there. It
// reports false, without notifying, when id was not bookmarked.
func (b *Bookmarks) Remove(ctx context.Context, id, userID string) (bool, error) {
	var removed bool
	err := b.opts.instrument(ctx, "bookmarks.remove", func(ctx context.Context) error {
		return b.mu.run(func() error {
			ids, err := loadForWrite[string](ctx, b.lists, bookmarksSpec, userID)
			if err != nil {
				return err
			}
			rest, ok := without(ids, id)
			if !ok {
				return nil
			}
			history, err := loadForWrite[domain.RecentlyRemoved](ctx, b.lists, recentlyRemovedSpec, userID)
			if err != nil {
				return err
			}
			history = append(dropHistory(history, id), domain.RecentlyRemoved{PropertyID: id, RemovedAt: b.opts.clock.Now().UTC()})
			if err := saveList(ctx, b.lists, recentlyRemovedSpec, userID, history); err != nil {
				return err
			}
			if err := saveList(ctx, b.lists, bookmarksSpec, userID, rest); err != nil {
				return err
			}
			removed = true
			return nil
		})
	})
	if err != nil {
		b.opts.logger.Error("bookmark remove failed", "id", id, "user", userID, "error", err)
		return false, err
	}
	if removed {
		b.publish(domain.EventBookmarksChanged, id, userID)
		b.publish(domain.EventRecentlyRemovedChanged, id, userID)
	}
	return removed, nil
}

// List returns the raw bookmarked ids, including ids whose listing is gone.
func (b *Bookmarks) List(ctx context.Context, userID string) ([]string, error) {
	ids, err := loadList[string](ctx, b.lists, bookmarksSpec, userID)
	if err != nil {
		b.opts.logger.Warn("bookmark list unreadable", "user", userID, "error", err)
		return []string{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ListProperties joins the bookmarked ids against the live listings,
// dropping ids that no longer resolve.
func (b *Bookmarks) ListProperties(ctx context.Context, userID string) ([]domain.DisplayProperty, error) {
	ids, err := b.List(ctx, userID)
	if err != nil {
		return []domain.DisplayProperty{}, err
	}
	return joinProperties(ctx, b.repo, ids)
}

// IsBookmarked reports whether userID bookmarked id.
func (b *Bookmarks) IsBookmarked(ctx context.Context, id, userID string) (bool, error) {
	ids, err := b.List(ctx, userID)
	if err != nil {
		return false, err
	}
	return indexOf(ids, id) >= 0, nil
}

// RecentlyRemoved returns userID's removal history in removal order.
func (b *Bookmarks) RecentlyRemoved(ctx context.Context, userID string) ([]domain.RecentlyRemoved, error) {
	history, err := loadList[domain.RecentlyRemoved](ctx, b.lists, recentlyRemovedSpec, userID)
	if err != nil {
		b.opts.logger.Warn("recently removed list unreadable", "user", userID, "error", err)
		return []domain.RecentlyRemoved{}, err
	}
	if history == nil {
		history = []domain.RecentlyRemoved{}
	}
	return history, nil
}

// Restore re-bookmarks id and drops it from the history. It reports false
// when id is not in the history.
func (b *Bookmarks) Restore(ctx context.Context, id, userID string) (bool, error) {
	var restored, readded bool
	err := b.opts.instrument(ctx, "bookmarks.restore", func(ctx context.Context) error {
		return b.mu.run(func() error {
			history, err := loadForWrite[domain.RecentlyRemoved](ctx, b.lists, recentlyRemovedSpec, userID)
			if err != nil {
				return err
			}
			rest := dropHistory(history, id)
			if len(rest) == len(history) {
				return nil
			}
			ids, err := loadForWrite[string](ctx, b.lists, bookmarksSpec, userID)
			if err != nil {
				return err
			}
			if indexOf(ids, id) < 0 {
				if err := saveList(ctx, b.lists, bookmarksSpec, userID, append(ids, id)); err != nil {
					return err
				}
				readded = true
			}
			if err := saveList(ctx, b.lists, recentlyRemovedSpec, userID, rest); err != nil {
				return err
			}
			restored = true
			return nil
		})
	})
	if err != nil {
		b.opts.logger.Error("bookmark restore failed", "id", id, "user", userID, "error", err)
		return false, err
	}
	if readded {
		b.publish(domain.EventBookmarksChanged, id, userID)
	}
	if restored {
		b.publish(domain.EventRecentlyRemovedChanged, id, userID)
	}
	return restored, nil
}

// PermanentlyDelete drops id from the history without restoring it.
func (b *Bookmarks) PermanentlyDelete(ctx context.Context, id, userID string) (bool, error) {
	var dropped bool
	err := b.opts.instrument(ctx, "bookmarks.permanently_delete", func(ctx context.Context) error {
		return b.mu.run(func() error {
			history, err := loadForWrite[domain.RecentlyRemoved](ctx, b.lists, recentlyRemovedSpec, userID)
			if err != nil {
				return err
			}
			rest := dropHistory(history, id)
			if len(rest) == len(history) {
				return nil
			}
			if err := saveList(ctx, b.lists, recentlyRemovedSpec, userID, rest); err != nil {
				return err
			}
			dropped = true
			return nil
		})
	})
	if err != nil {
		b.opts.logger.Error("bookmark history delete failed", "id", id, "user", userID, "error", err)
		return false, err
	}
	if dropped {
		b.publish(domain.EventRecentlyRemovedChanged, id, userID)
	}
	return dropped, nil
}

// PurgeRecentlyRemoved drops history entries removed before cutoff and
// returns how many were dropped.
func (b *Bookmarks) PurgeRecentlyRemoved(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	var purged int
	err := b.opts.instrument(ctx, "bookmarks.purge", func(ctx context.Context) error {
		return b.mu.run(func() error {
			history, err := loadForWrite[domain.RecentlyRemoved](ctx, b.lists, recentlyRemovedSpec, userID)
			if err != nil {
				return err
			}
			kept := history[:0:0]
			for _, h := range history {
				if h.RemovedAt.Before(cutoff) {
					purged++
					continue
				}
				kept = append(kept, h)
			}
			if purged == 0 {
				return nil
			}
			return saveList(ctx, b.lists, recentlyRemovedSpec, userID, kept)
		})
	})
	if err != nil {
		b.opts.logger.Error("bookmark history purge failed", "user", userID, "error", err)
		return 0, err
	}
	if purged > 0 {
		b.publish(domain.EventRecentlyRemovedChanged, "", userID)
	}
	return purged, nil
}

func dropHistory(history []domain.RecentlyRemoved, id string) []domain.RecentlyRemoved {
	out := make([]domain.RecentlyRemoved, 0, len(history))
	for _, h := range history {
		if h.PropertyID != id {
			out = append(out, h)
		}
	}
	return out
}

// joinProperties resolves ids against the live listings in id order. A
// degraded listing read still yields the resolvable entries.
func joinProperties(ctx context.Context, repo *Repository, ids []string) ([]domain.DisplayProperty, error) {
	all, err := repo.GetAll(ctx)
	if err != nil && !errors.Is(err, domain.ErrCorruptData) {
		return []domain.DisplayProperty{}, err
	}
	byID := make(map[string]domain.DisplayProperty, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	out := make([]domain.DisplayProperty, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, err
}
