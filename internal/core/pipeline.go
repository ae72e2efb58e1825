package core

import (
	"context"
	"errors"
	"fmt"

	"rentapp/internal/kv"
	"rentapp/pkg/domain"
)

// Pipeline tracks listings a user is following up on and listings they have
// closed. A listing is never in both lists for the same user.
type Pipeline struct {
	lists  listStore
	repo   *Repository
	opts   options
	events *Notifier
	mu     lockedSection
}

// NewPipeline returns a follow-up/closed manager joining against repo.
func NewPipeline(store kv.Store, repo *Repository, registry *KeyRegistry, opts ...Option) *Pipeline {
	o := buildOptions(opts)
	return &Pipeline{
		lists:  listStore{store: store, registry: registry, logger: o.logger},
		repo:   repo,
		opts:   o,
		events: NewNotifier(),
	}
}

// Events returns the notifier for followUpChanged and closedChanged.
func (p *Pipeline) Events() *Notifier { return p.events }

func (p *Pipeline) publish(name domain.EventName, id, userID string) {
	p.events.Publish(domain.Event{Name: name, PropertyID: id, UserID: userID})
}

func eventFor(spec listSpec) domain.EventName {
	if spec.name == ClosedList {
		return domain.EventClosedChanged
	}
	return domain.EventFollowUpChanged
}

// moveInto adds id to target and removes it from other. The removal is
// written first so a failed add never leaves id in both lists.
func (p *Pipeline) moveInto(ctx context.Context, op string, target, other listSpec, id, userID string) (bool, error) {
	var added, evicted bool
	err := p.opts.instrument(ctx, op, func(ctx context.Context) error {
		return p.mu.run(func() error {
			others, err := loadForWrite[string](ctx, p.lists, other, userID)
			if err != nil {
				return err
			}
			if rest, ok := without(others, id); ok {
				if err := saveList(ctx, p.lists, other, userID, rest); err != nil {
					return err
				}
				evicted = true
			}
			ids, err := loadForWrite[string](ctx, p.lists, target, userID)
			if err != nil || indexOf(ids, id) >= 0 {
				return err
			}
			if err := saveList(ctx, p.lists, target, userID, append(ids, id)); err != nil {
				return err
			}
			added = true
			return nil
		})
	})
	if evicted {
		p.publish(eventFor(other), id, userID)
	}
	if err != nil {
		p.opts.logger.Error("pipeline add failed", "list", target.name, "id", id, "user", userID, "error", err)
		return false, err
	}
	if added {
		p.publish(eventFor(target), id, userID)
	}
	return added, nil
}

func (p *Pipeline) remove(ctx context.Context, op string, spec listSpec, id, userID string) (bool, error) {
	var removed bool
	err := p.opts.instrument(ctx, op, func(ctx context.Context) error {
		return p.mu.run(func() error {
			ids, err := loadForWrite[string](ctx, p.lists, spec, userID)
			if err != nil {
				return err
			}
			rest, ok := without(ids, id)
			if !ok {
				return nil
			}
			if err := saveList(ctx, p.lists, spec, userID, rest); err != nil {
				return err
			}
			removed = true
			return nil
		})
	})
	if err != nil {
		p.opts.logger.Error("pipeline remove failed", "list", spec.name, "id", id, "user", userID, "error", err)
		return false, err
	}
	if removed {
		p.publish(eventFor(spec), id, userID)
	}
	return removed, nil
}

func (p *Pipeline) list(ctx context.Context, spec listSpec, userID string) ([]string, error) {
	ids, err := loadList[string](ctx, p.lists, spec, userID)
	if err != nil {
		p.opts.logger.Warn("pipeline list unreadable", "list", spec.name, "user", userID, "error", err)
		return []string{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (p *Pipeline) listProperties(ctx context.Context, spec listSpec, userID string) ([]domain.DisplayProperty, error) {
	ids, err := p.list(ctx, spec, userID)
	if err != nil {
		return []domain.DisplayProperty{}, err
	}
	return joinProperties(ctx, p.repo, ids)
}

// AddToFollowUp marks id for follow-up, taking it out of closed. It reports
// false when id was already followed up.
func (p *Pipeline) AddToFollowUp(ctx context.Context, id, userID string) (bool, error) {
	return p.moveInto(ctx, "followup.add", followUpSpec, closedSpec, id, userID)
}

// RemoveFromFollowUp drops id from the follow-up list.
func (p *Pipeline) RemoveFromFollowUp(ctx context.Context, id, userID string) (bool, error) {
	return p.remove(ctx, "followup.remove", followUpSpec, id, userID)
}

// ListFollowUp returns raw follow-up ids.
func (p *Pipeline) ListFollowUp(ctx context.Context, userID string) ([]string, error) {
	return p.list(ctx, followUpSpec, userID)
}

// ListFollowUpProperties returns the follow-up listings that still exist.
func (p *Pipeline) ListFollowUpProperties(ctx context.Context, userID string) ([]domain.DisplayProperty, error) {
	return p.listProperties(ctx, followUpSpec, userID)
}

// AddToClosed marks id closed, taking it out of follow-up.
func (p *Pipeline) AddToClosed(ctx context.Context, id, userID string) (bool, error) {
	return p.moveInto(ctx, "closed.add", closedSpec, followUpSpec, id, userID)
}

// RemoveFromClosed drops id from closed. It does not return id to follow-up.
func (p *Pipeline) RemoveFromClosed(ctx context.Context, id, userID string) (bool, error) {
	return p.remove(ctx, "closed.remove", closedSpec, id, userID)
}

// ListClosed returns raw closed ids.
func (p *Pipeline) ListClosed(ctx context.Context, userID string) ([]string, error) {
	return p.list(ctx, closedSpec, userID)
}

// ListClosedProperties returns the closed listings that still exist.
func (p *Pipeline) ListClosedProperties(ctx context.Context, userID string) ([]domain.DisplayProperty, error) {
	return p.listProperties(ctx, closedSpec, userID)
}

// Notes returns userID's follow-up notes keyed by property id.
func (p *Pipeline) Notes(ctx context.Context, userID string) (map[string]string, error) {
	notes := map[string]string{}
	if _, err := readJSON(ctx, p.lists.store, notesSpec.key(userID), &notes); err != nil {
		p.opts.logger.Warn("follow-up notes unreadable", "user", userID, "error", err)
		return map[string]string{}, err
	}
	return notes, nil
}

// Note returns the follow-up note for id, empty when none.
func (p *Pipeline) Note(ctx context.Context, id, userID string) (string, error) {
	notes, err := p.Notes(ctx, userID)
	return notes[id], err
}

// SetNote stores a follow-up note for id. An empty note deletes it.
func (p *Pipeline) SetNote(ctx context.Context, id, note, userID string) error {
	err := p.opts.instrument(ctx, "followup.note", func(ctx context.Context) error {
		return p.mu.run(func() error {
			key := notesSpec.key(userID)
			notes := map[string]string{}
			if _, err := readJSON(ctx, p.lists.store, key, &notes); err != nil {
				if !errors.Is(err, domain.ErrCorruptData) {
					return err
				}
				p.opts.logger.Warn("discarding corrupt follow-up notes", "key", key, "error", err)
				notes = map[string]string{}
			}
			if note == "" {
				delete(notes, id)
			} else {
				notes[id] = note
			}
			if err := writeJSON(ctx, p.lists.store, key, notes); err != nil {
				return err
			}
			return p.lists.registry.Register(ctx, notesSpec.name, key)
		})
	})
	if err != nil {
		p.opts.logger.Error("follow-up note failed", "id", id, "user", userID, "error", err)
		return err
	}
	p.publish(domain.EventFollowUpChanged, id, userID)
	return nil
}

// ClearAll removes every follow-up and closed list recorded in the key
// registry, for all users, together with the notes of userID only. It
// returns the number of list keys removed.
func (p *Pipeline) ClearAll(ctx context.Context, userID string) (int, error) {
	var cleared int
	err := p.opts.instrument(ctx, "pipeline.clear_all", func(ctx context.Context) error {
		return p.mu.run(func() error {
			keys := []string{followUpSpec.key(userID), closedSpec.key(userID)}
			for _, list := range []string{FollowUpList, ClosedList} {
				registered, err := p.lists.registry.Keys(ctx, list)
				if err != nil {
					p.opts.logger.Warn("key registry unreadable, clearing caller lists only", "error", err)
					continue
				}
				keys = append(keys, registered...)
			}
			seen := make(map[string]bool, len(keys))
			var removed []string
			for _, key := range keys {
				if seen[key] {
					continue
				}
				seen[key] = true
				_, exists, err := p.lists.store.Get(ctx, key)
				if err != nil {
					return fmt.Errorf("read %s: %w", key, err)
				}
				if err := p.lists.store.Remove(ctx, key); err != nil {
					return fmt.Errorf("remove %s: %w", key, err)
				}
				removed = append(removed, key)
				if exists {
					cleared++
				}
			}
			notesKey := notesSpec.key(userID)
			if err := p.lists.store.Remove(ctx, notesKey); err != nil {
				return fmt.Errorf("remove %s: %w", notesKey, err)
			}
			removed = append(removed, notesKey)
			if err := p.lists.registry.Forget(ctx, removed...); err != nil {
				p.opts.logger.Warn("key registry cleanup failed", "error", err)
			}
			return nil
		})
	})
	if err != nil {
		p.opts.logger.Error("pipeline clear failed", "user", userID, "error", err)
		return cleared, err
	}
	p.opts.logger.Info("cleared follow-up and closed lists", "keys", cleared, "notes_user", userID)
	p.publish(domain.EventFollowUpChanged, "", userID)
	p.publish(domain.EventClosedChanged, "", userID)
	return cleared, nil
}
