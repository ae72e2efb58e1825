package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentapp/pkg/domain"
)

func TestPipelineExclusion(t *testing.T) {
	ctx := context.Background()
	p := newTestService(t, newFakeClock()).Pipeline()
	events := record(p.Events())

	added, err := p.AddToFollowUp(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = p.AddToClosed(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.True(t, added)
	follow, err := p.ListFollowUp(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, follow, "s1")
	closed, err := p.ListClosed(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, closed)

	added, err = p.AddToFollowUp(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.True(t, added)
	closed, err = p.ListClosed(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, closed, "s1")

	assert.Equal(t, []domain.EventName{
		domain.EventFollowUpChanged,
		domain.EventFollowUpChanged, domain.EventClosedChanged,
		domain.EventClosedChanged, domain.EventFollowUpChanged,
	}, events.names())
}

func TestPipelineRemoveFromClosedDoesNotRestoreFollowUp(t *testing.T) {
	ctx := context.Background()
	p := newTestService(t, newFakeClock()).Pipeline()
	_, err := p.AddToFollowUp(ctx, "s2", "u1")
	require.NoError(t, err)
	_, err = p.AddToClosed(ctx, "s2", "u1")
	require.NoError(t, err)

	removed, err := p.RemoveFromClosed(ctx, "s2", "u1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = p.RemoveFromClosed(ctx, "s2", "u1")
	require.NoError(t, err)
	assert.False(t, removed)

	follow, err := p.ListFollowUp(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, follow)
}

func TestPipelineAddIsIdempotentPerList(t *testing.T) {
	ctx := context.Background()
	p := newTestService(t, newFakeClock()).Pipeline()
	for _, add := range []func(context.Context, string, string) (bool, error){p.AddToFollowUp, p.AddToClosed} {
		first, err := add(ctx, "s1", "u2")
		require.NoError(t, err)
		second, err := add(ctx, "s1", "u2")
		require.NoError(t, err)
		assert.True(t, first)
		assert.False(t, second)
	}
	removed, err := p.RemoveFromFollowUp(ctx, "s1", "u2")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPipelineAnonymousKeys(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeClock())
	_, err := svc.Pipeline().AddToFollowUp(ctx, "s1", "")
	require.NoError(t, err)
	_, err = svc.Pipeline().AddToClosed(ctx, "s2", "")
	require.NoError(t, err)
	for _, key := range []string{"rentapp_followup", "rentapp_closed"} {
		_, ok, err := svc.Store().Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
}

func TestPipelineListPropertiesJoins(t *testing.T) {
	ctx := context.Background()
	p := newTestService(t, newFakeClock()).Pipeline()
	_, _ = p.AddToFollowUp(ctx, "s2", "u1")
	_, _ = p.AddToFollowUp(ctx, "gone", "u1")
	_, _ = p.AddToClosed(ctx, "s1", "u1")

	follow, err := p.ListFollowUpProperties(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, ids(follow))
	closed, err := p.ListClosedProperties(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids(closed))
}

func TestPipelineNotes(t *testing.T) {
	ctx := context.Background()
	p := newTestService(t, newFakeClock()).Pipeline()
	require.NoError(t, p.SetNote(ctx, "s1", "call landlord Monday", "u1"))
	require.NoError(t, p.SetNote(ctx, "s2", "viewing booked", "u1"))

	note, err := p.Note(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "call landlord Monday", note)

	require.NoError(t, p.SetNote(ctx, "s1", "", "u1"))
	notes, err := p.Notes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"s2": "viewing booked"}, notes)

	guest, err := p.Notes(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, guest)
}

func TestPipelineClearAllSpansUsersButScopesNotes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeClock())
	p := svc.Pipeline()
	for _, user := range []string{"u1", "u2", ""} {
		_, err := p.AddToFollowUp(ctx, "s1", user)
		require.NoError(t, err)
		_, err = p.AddToClosed(ctx, "s2", user)
		require.NoError(t, err)
	}
	require.NoError(t, p.SetNote(ctx, "s1", "u1 note", "u1"))
	require.NoError(t, p.SetNote(ctx, "s1", "u2 note", "u2"))
	_, err := svc.Bookmarks().Add(ctx, "s1", "u2")
	require.NoError(t, err)
	events := record(p.Events())

	cleared, err := p.ClearAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 6, cleared)

	for _, user := range []string{"u1", "u2", ""} {
		follow, err := p.ListFollowUp(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, follow, "follow-up of %q", user)
		closed, err := p.ListClosed(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, closed, "closed of %q", user)
	}
	u1Notes, err := p.Notes(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, u1Notes)
	u2Notes, err := p.Notes(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2 note", u2Notes["s1"])

	bookmarks, err := svc.Bookmarks().List(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, bookmarks)

	keys, err := svc.Registry().Keys(ctx, FollowUpList)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, []domain.EventName{domain.EventFollowUpChanged, domain.EventClosedChanged}, events.names())
}
