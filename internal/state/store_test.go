package state

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(baseState(), zap.NewNop())
}

func TestApplyPassAtomicity(t *testing.T) {
	store := newTestStore(t)

	entry := models.StoryEntry{
		ID:        uuid.New(),
		Role:      models.EntryRoleNarrator,
		Text:      "The gate swings open.",
		CreatedAt: time.Now(),
	}

	t.Run("all transitions apply together", func(t *testing.T) {
		next, err := store.ApplyPass([]Transition{
			{Kind: KindAppendEntry, Payload: AppendEntryPayload{Entry: entry}},
			{Kind: KindDamage, Payload: DamagePayload{Amount: 3}},
		})
		require.NoError(t, err)
		assert.Len(t, next.Story, 1)
		assert.Equal(t, 17, next.Character.HitPoints)
	})

	t.Run("one bad transition rejects the whole pass", func(t *testing.T) {
		before := store.Snapshot()
		_, err := store.ApplyPass([]Transition{
			{Kind: KindDamage, Payload: DamagePayload{Amount: 5}},
			{Kind: KindDamage, Payload: DamagePayload{Amount: -1}},
		})
		require.ErrorIs(t, err, models.ErrInvalidTransition)

		after := store.Snapshot()
		assert.Equal(t, before.Character.HitPoints, after.Character.HitPoints)
		assert.Len(t, after.Story, len(before.Story))
	})
}

func TestSnapshotIsolation(t *testing.T) {
	store := newTestStore(t)

	snapshot := store.Snapshot()
	snapshot.Character.HitPoints = 1
	snapshot.World.Flags["tampered"] = true

	fresh := store.Snapshot()
	assert.Equal(t, 20, fresh.Character.HitPoints)
	assert.NotContains(t, fresh.World.Flags, "tampered")
}

func TestPatchEntry(t *testing.T) {
	store := newTestStore(t)

	entry := models.StoryEntry{
		ID:        uuid.New(),
		Role:      models.EntryRoleNarrator,
		Text:      "A voice echoes through the hall.",
		CreatedAt: time.Now(),
	}
	_, err := store.ApplyPass([]Transition{
		{Kind: KindAppendEntry, Payload: AppendEntryPayload{Entry: entry}},
	})
	require.NoError(t, err)

	voiceURL := "/media/turn_1.mp3"

	t.Run("patches an existing entry", func(t *testing.T) {
		ok := store.PatchEntry(entry.ID, models.EntryPatch{VoiceURL: &voiceURL})
		require.True(t, ok)

		state := store.Snapshot()
		require.NotNil(t, state.Story[0].VoiceURL)
		assert.Equal(t, voiceURL, *state.Story[0].VoiceURL)
	})

	t.Run("drops patches for unknown entries", func(t *testing.T) {
		ok := store.PatchEntry(uuid.New(), models.EntryPatch{VoiceURL: &voiceURL})
		assert.False(t, ok)
	})
}
