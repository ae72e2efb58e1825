package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentapp/pkg/domain"
)

func TestKeyRegistryRegisterAndForget(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	reg := NewKeyRegistry(store)

	require.NoError(t, reg.Register(ctx, FollowUpList, "rentapp_followup_u2"))
	require.NoError(t, reg.Register(ctx, FollowUpList, "rentapp_followup_u1"))
	require.NoError(t, reg.Register(ctx, FollowUpList, "rentapp_followup_u1"))
	require.NoError(t, reg.Register(ctx, FollowUpNotesList, "rentapp_followup_notes_u1"))

	keys, err := reg.Keys(ctx, FollowUpList)
	require.NoError(t, err)
	assert.Equal(t, []string{"rentapp_followup_u1", "rentapp_followup_u2"}, keys)

	entries, err := reg.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	require.NoError(t, reg.Forget(ctx, "rentapp_followup_u2", "unknown"))
	keys, err = reg.Keys(ctx, FollowUpList)
	require.NoError(t, err)
	assert.Equal(t, []string{"rentapp_followup_u1"}, keys)

	notes, err := reg.Keys(ctx, FollowUpNotesList)
	require.NoError(t, err)
	assert.Equal(t, []string{"rentapp_followup_notes_u1"}, notes)
}

func TestKeyRegistryRecoversFromCorruption(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	require.NoError(t, store.Set(ctx, RegistryKey, "not json"))
	reg := NewKeyRegistry(store)

	_, err := reg.Keys(ctx, ClosedList)
	assert.True(t, errors.Is(err, domain.ErrCorruptData))

	require.NoError(t, reg.Register(ctx, ClosedList, "rentapp_closed_u1"))
	keys, err := reg.Keys(ctx, ClosedList)
	require.NoError(t, err)
	assert.Equal(t, []string{"rentapp_closed_u1"}, keys)
}

func TestListSpecKeys(t *testing.T) {
	assert.Equal(t, "rentapp_bookmarks_u1", bookmarksSpec.key("u1"))
	assert.Equal(t, "rentapp_bookmarks_guest", bookmarksSpec.key(""))
	assert.Equal(t, "rentapp_recently_removed_bookmarks_guest", recentlyRemovedSpec.key(""))
	assert.Equal(t, "rentapp_followup_u1", followUpSpec.key("u1"))
	assert.Equal(t, "rentapp_followup", followUpSpec.key(""))
	assert.Equal(t, "rentapp_closed", closedSpec.key(""))
	assert.Equal(t, "rentapp_followup_notes_guest", notesSpec.key(""))
}
