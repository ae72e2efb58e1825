package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"rentapp/internal/kv"
	"rentapp/pkg/domain"
)

// Repository merges the static catalog with the submission store and serves
// sorted display views. Reads are memoized for a short window.
type Repository struct {
	opts   options
	store  kv.Store
	images *ImageOffloader
	events *Notifier

	cacheMu sync.Mutex
	memo    *memo

	writeMu sync.Mutex
}

type memo struct {
	value      []domain.DisplayProperty
	err        error
	computedAt time.Time
}

// NewRepository returns a repository over store.
func NewRepository(store kv.Store, opts ...Option) *Repository {
	o := buildOptions(opts)
	r := &Repository{opts: o, store: store, events: NewNotifier()}
	if o.images != nil {
		r.images = NewImageOffloader(o.images, o.logger)
	}
	return r
}

// Events returns the notifier for propertyAdded, propertyUpdated and
// propertyDeleted.
func (r *Repository) Events() *Notifier { return r.events }

// GetAll returns every listing, submitted before static on equal timestamps,
// newest first. The returned slice is shared with later calls inside the memo
// window and must not be modified. When the submission store is corrupt the
// catalog-only view is returned with an error wrapping domain.ErrCorruptData.
func (r *Repository) GetAll(ctx context.Context) ([]domain.DisplayProperty, error) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	now := r.opts.clock.Now()
	if m := r.memo; m != nil {
		if age := now.Sub(m.computedAt); age >= 0 && age < r.opts.cacheWindow {
			r.opts.observeCache(true)
			return m.value, m.err
		}
	}
	r.opts.observeCache(false)

	var value []domain.DisplayProperty
	err := r.opts.instrument(ctx, "properties.get_all", func(ctx context.Context) error {
		var err error
		value, err = r.compute(ctx)
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrCorruptData) {
		return value, err
	}
	r.memo = &memo{value: value, err: err, computedAt: now}
	return value, err
}

func (r *Repository) compute(ctx context.Context) ([]domain.DisplayProperty, error) {
	static, err := r.opts.catalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	subs, subErr := r.loadSubmissions(ctx)
	if subErr != nil {
		r.opts.logger.Error("submission store unreadable, serving catalog only", "error", subErr)
		subs = nil
	}
	out := make([]domain.DisplayProperty, 0, len(subs)+len(static))
	for _, p := range subs {
		out = append(out, domain.ToDisplay(p))
	}
	for _, p := range static {
		out = append(out, domain.StaticToDisplay(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveTime().After(out[j].EffectiveTime())
	})
	return out, subErr
}

// Filter returns the GetAll entries matching f.
func (r *Repository) Filter(ctx context.Context, f domain.PropertyFilter) ([]domain.DisplayProperty, error) {
	all, err := r.GetAll(ctx)
	return f.Apply(all), err
}

// Invalidate drops the memoized view.
func (r *Repository) Invalidate() {
	r.cacheMu.Lock()
	r.memo = nil
	r.cacheMu.Unlock()
}

func (r *Repository) loadSubmissions(ctx context.Context) ([]domain.SubmittedProperty, error) {
	var subs []domain.SubmittedProperty
	if _, err := readJSON(ctx, r.store, PropertiesKey, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// GetByID looks up a submitted property. When ownerID is given and the record
// belongs to someone else the lookup reports false without an error. Owner
// email and name are backfilled from the contact fields.
func (r *Repository) GetByID(ctx context.Context, id, ownerID string) (domain.SubmittedProperty, bool, error) {
	subs, err := r.loadSubmissions(ctx)
	if err != nil {
		r.opts.logger.Warn("property lookup failed", "id", id, "error", err)
		return domain.SubmittedProperty{}, false, err
	}
	for _, p := range subs {
		if p.ID != id {
			continue
		}
		if ownerID != "" && p.OwnerID != "" && p.OwnerID != ownerID {
			return domain.SubmittedProperty{}, false, nil
		}
		return p.WithOwnerBackfill().Clone(), true, nil
	}
	return domain.SubmittedProperty{}, false, nil
}

// ListByOwner returns the submissions owned by ownerID, newest first, with
// owner details backfilled.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]domain.SubmittedProperty, error) {
	subs, err := r.loadSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.SubmittedProperty
	for _, p := range subs {
		if ownerID != "" && p.OwnerID == ownerID {
			out = append(out, p.WithOwnerBackfill().Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveTime().After(out[j].EffectiveTime())
	})
	return out, nil
}

// Create validates and appends p to the submission store. Missing ids are
// derived from the creation time in milliseconds. Inline images are
// offloaded when an image store is configured; if the serialized store still
// exceeds the budget the incoming images are dropped. A quota failure prunes
// the store to the most recent submissions and retries once.
func (r *Repository) Create(ctx context.Context, p domain.SubmittedProperty) (domain.SubmittedProperty, error) {
	var created domain.SubmittedProperty
	err := r.opts.instrument(ctx, "properties.create", func(ctx context.Context) error {
		var err error
		created, err = r.create(ctx, p)
		return err
	})
	if err != nil {
		r.opts.logger.Error("property create failed", "error", err)
		return domain.SubmittedProperty{}, err
	}
	r.Invalidate()
	r.events.Publish(domain.Event{Name: domain.EventPropertyAdded, PropertyID: created.ID, UserID: created.OwnerID})
	return created, nil
}

func (r *Repository) create(ctx context.Context, p domain.SubmittedProperty) (domain.SubmittedProperty, error) {
	p = p.Clone()
	p.Region = domain.Slugify(p.Region)
	p.Ward = domain.Slugify(p.Ward)
	if err := p.Validate(); err != nil {
		return domain.SubmittedProperty{}, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	existing, err := r.loadSubmissions(ctx)
	switch {
	case errors.Is(err, domain.ErrCorruptData):
		r.opts.logger.Warn("replacing corrupt submission store", "error", err)
		existing = nil
	case err != nil:
		return domain.SubmittedProperty{}, err
	}

	now := r.opts.clock.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.ID == "" {
		p.ID = nextID(existing, now)
	} else if findSubmission(existing, p.ID) >= 0 {
		return domain.SubmittedProperty{}, fmt.Errorf("%w: id %s already exists", domain.ErrInvalidProperty, p.ID)
	}
	p.Images = r.offload(ctx, p.ID, p.Images)

	next := append(existing[:len(existing):len(existing)], p)
	payload, err := json.Marshal(next)
	if err != nil {
		return domain.SubmittedProperty{}, fmt.Errorf("encode submissions: %w", err)
	}
	if len(payload) > r.opts.storeBudget && len(p.Images) > 0 {
		r.opts.logger.Warn("submission store over budget, dropping images",
			"id", p.ID, "bytes", len(payload), "budget", r.opts.storeBudget)
		r.discardImages(ctx, p.ID)
		p.Images = nil
		next[len(next)-1] = p
		if payload, err = json.Marshal(next); err != nil {
			return domain.SubmittedProperty{}, fmt.Errorf("encode submissions: %w", err)
		}
	}

	err = r.store.Set(ctx, PropertiesKey, string(payload))
	if errors.Is(err, domain.ErrQuotaExceeded) {
		kept, pruned := pruneRecent(existing, r.opts.pruneKeep-1)
		r.opts.logger.Warn("storage quota exceeded, pruning submissions",
			"kept", len(kept), "pruned", len(pruned))
		if payload, err = json.Marshal(append(kept, p)); err != nil {
			return domain.SubmittedProperty{}, fmt.Errorf("encode submissions: %w", err)
		}
		if err = r.store.Set(ctx, PropertiesKey, string(payload)); err == nil {
			for _, old := range pruned {
				r.discardImages(ctx, old.ID)
			}
		}
	}
	if err != nil {
		r.discardImages(ctx, p.ID)
		return domain.SubmittedProperty{}, fmt.Errorf("save property %s: %w", p.ID, err)
	}
	return p.Clone(), nil
}

// Update applies mutate to a copy of the stored record. id, createdAt and the
// ownership fields are restored afterwards and updatedAt is stamped. A record
// owned by someone other than userID is left unchanged and false is returned.
func (r *Repository) Update(ctx context.Context, id string, mutate func(*domain.SubmittedProperty) error, userID string) (bool, error) {
	var ok bool
	err := r.opts.instrument(ctx, "properties.update", func(ctx context.Context) error {
		var err error
		ok, err = r.update(ctx, id, mutate, userID)
		return err
	})
	if err != nil {
		r.opts.logger.Error("property update failed", "id", id, "error", err)
		return false, err
	}
	if ok {
		r.Invalidate()
		r.events.Publish(domain.Event{Name: domain.EventPropertyUpdated, PropertyID: id, UserID: userID})
	}
	return ok, nil
}

func (r *Repository) update(ctx context.Context, id string, mutate func(*domain.SubmittedProperty) error, userID string) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	subs, err := r.loadSubmissions(ctx)
	if err != nil {
		return false, err
	}
	idx := findSubmission(subs, id)
	if idx < 0 {
		return false, nil
	}
	current := subs[idx]
	if !canModify(current, userID) {
		r.opts.logger.Warn("update denied", "id", id, "user", userID)
		return false, nil
	}

	owner := current.WithOwnerBackfill()
	next := owner.Clone()
	if mutate != nil {
		if err := mutate(&next); err != nil {
			return false, fmt.Errorf("mutate property %s: %w", id, err)
		}
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.OwnerID = current.OwnerID
	next.OwnerEmail = owner.OwnerEmail
	next.OwnerName = owner.OwnerName
	now := r.opts.clock.Now().UTC()
	next.UpdatedAt = &now
	next.Region = domain.Slugify(next.Region)
	next.Ward = domain.Slugify(next.Ward)
	if err := next.Validate(); err != nil {
		return false, err
	}
	next.Images = r.offload(ctx, id, next.Images)

	subs[idx] = next
	if err := writeJSON(ctx, r.store, PropertiesKey, subs); err != nil {
		r.pruneImages(ctx, id, current.Images)
		return false, err
	}
	r.pruneImages(ctx, id, next.Images)
	return true, nil
}

// Delete removes a submitted property and its offloaded images. A record
// owned by someone other than userID is left in place and false is returned.
func (r *Repository) Delete(ctx context.Context, id, userID string) (bool, error) {
	var ok bool
	err := r.opts.instrument(ctx, "properties.delete", func(ctx context.Context) error {
		var err error
		ok, err = r.delete(ctx, id, userID)
		return err
	})
	if err != nil {
		r.opts.logger.Error("property delete failed", "id", id, "error", err)
		return false, err
	}
	if ok {
		r.discardImages(ctx, id)
		r.Invalidate()
		r.events.Publish(domain.Event{Name: domain.EventPropertyDeleted, PropertyID: id, UserID: userID})
	}
	return ok, nil
}

func (r *Repository) delete(ctx context.Context, id, userID string) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	subs, err := r.loadSubmissions(ctx)
	if err != nil {
		return false, err
	}
	idx := findSubmission(subs, id)
	if idx < 0 {
		return false, nil
	}
	if !canModify(subs[idx], userID) {
		r.opts.logger.Warn("delete denied", "id", id, "user", userID)
		return false, nil
	}
	subs = append(subs[:idx], subs[idx+1:]...)
	if err := writeJSON(ctx, r.store, PropertiesKey, subs); err != nil {
		return false, err
	}
	return true, nil
}

// offload replaces inline images when an image store is configured. Failures
// keep the inline images so the size guard can still apply.
func (r *Repository) offload(ctx context.Context, id string, images []string) []string {
	if r.images == nil || !hasInline(images) {
		return images
	}
	out, err := r.images.Offload(ctx, id, images)
	if err != nil {
		r.opts.logger.Warn("image offload failed, keeping inline images", "id", id, "error", err)
		return images
	}
	return out
}

func (r *Repository) discardImages(ctx context.Context, id string) {
	if r.images == nil {
		return
	}
	if _, err := r.images.DeleteAll(ctx, id); err != nil {
		r.opts.logger.Warn("image cleanup failed", "id", id, "error", err)
	}
}

// pruneImages drops the blobs of id that images no longer refer to.
func (r *Repository) pruneImages(ctx context.Context, id string, images []string) {
	if r.images == nil {
		return
	}
	if _, err := r.images.Prune(ctx, id, images); err != nil {
		r.opts.logger.Warn("image cleanup failed", "id", id, "error", err)
	}
}

func hasInline(images []string) bool {
	for _, img := range images {
		if IsInline(img) {
			return true
		}
	}
	return false
}

func canModify(p domain.SubmittedProperty, userID string) bool {
	return p.OwnerID == "" || p.OwnerID == userID
}

func findSubmission(subs []domain.SubmittedProperty, id string) int {
	for i, p := range subs {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// nextID derives an id from now in milliseconds, stepping past collisions.
func nextID(existing []domain.SubmittedProperty, now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if findSubmission(existing, id) < 0 {
			return id
		}
		ms++
	}
}

// pruneRecent keeps the keep most recent submissions in their stored order.
func pruneRecent(subs []domain.SubmittedProperty, keep int) (kept, pruned []domain.SubmittedProperty) {
	if keep < 0 {
		keep = 0
	}
	if len(subs) <= keep {
		return append([]domain.SubmittedProperty(nil), subs...), nil
	}
	order := make([]int, len(subs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ta, tb := subs[order[a]].EffectiveTime(), subs[order[b]].EffectiveTime()
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return order[a] > order[b]
	})
	survive := make(map[int]bool, keep)
	for _, i := range order[:keep] {
		survive[i] = true
	}
	for i, p := range subs {
		if survive[i] {
			kept = append(kept, p)
		} else {
			pruned = append(pruned, p)
		}
	}
	return kept, pruned
}
