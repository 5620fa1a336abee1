// Package state implements the game state store: a closed set of named
// transitions applied by a pure reducer. No component mutates the aggregate
// directly; everything goes through Apply.
package state

import (
	"time"

	"github.com/google/uuid"

	"saga-server/internal/models"
)

// Kind is the discriminant tag of a transition.
type Kind string

const (
	KindAppendEntry Kind = "append_entry"
	KindPatchEntry  Kind = "patch_entry"

	KindDamage          Kind = "damage"
	KindBeginDying      Kind = "begin_dying"
	KindHeal            Kind = "heal"
	KindRecordDeathSave Kind = "record_death_save"

	KindGrantExperience  Kind = "grant_experience"
	KindAddItem          Kind = "add_item"
	KindAddCondition     Kind = "add_condition"
	KindRemoveCondition  Kind = "remove_condition"
	KindGrantInspiration Kind = "grant_inspiration"

	KindCompleteMilestone   Kind = "complete_milestone"
	KindUpdateQuestProgress Kind = "update_quest_progress"
	KindSuggestSideQuest    Kind = "suggest_side_quest"
	KindAcceptSideQuest     Kind = "accept_side_quest"
	KindRejectSideQuest     Kind = "reject_side_quest"

	KindMoveLocation Kind = "move_location"
	KindRevealArea   Kind = "reveal_area"
	KindCompleteArea Kind = "complete_area"

	KindAdvanceStory  Kind = "advance_story"
	KindCompleteStory Kind = "complete_story"
	KindVictory       Kind = "victory"

	KindAwaitDiceRoll   Kind = "await_dice_roll"
	KindResolveDiceRoll Kind = "resolve_dice_roll"
	KindEnableChaosDice Kind = "enable_chaos_dice"

	KindRecordNPC          Kind = "record_npc"
	KindRecordDecision     Kind = "record_decision"
	KindRecordPuzzleSolved Kind = "record_puzzle_solved"
	KindRecordCombat       Kind = "record_combat"

	KindCompanionJoin  Kind = "companion_join"
	KindCompanionLeave Kind = "companion_leave"

	KindSetAutoPlayVoice Kind = "set_auto_play_voice"
)

// Transition is a named, pure state-mutation request. Payload must hold the
// payload type matching Kind; Apply rejects mismatches.
type Transition struct {
	Kind    Kind
	Payload any
}

// Payload types, one per Kind. Timestamps travel in the payload so the
// reducer itself never reads the wall clock.

type AppendEntryPayload struct {
	Entry models.StoryEntry
}

type PatchEntryPayload struct {
	EntryID uuid.UUID
	Patch   models.EntryPatch
}

type DamagePayload struct {
	Amount int
}

type HealPayload struct {
	Amount int
}

type RecordDeathSavePayload struct {
	Success bool
}

type GrantExperiencePayload struct {
	Amount int
}

type AddItemPayload struct {
	Item models.Item
}

type AddConditionPayload struct {
	Condition string
}

type RemoveConditionPayload struct {
	Condition string
}

type CompleteMilestonePayload struct {
	QuestID     uuid.UUID
	MilestoneID string
}

type UpdateQuestProgressPayload struct {
	QuestID  uuid.UUID
	Progress int
}

type SuggestSideQuestPayload struct {
	Quest models.QuestProgress
}

type MoveLocationPayload struct {
	To string
}

type RevealAreaPayload struct {
	Area string
}

type CompleteAreaPayload struct {
	Area string
}

type AdvanceStoryPayload struct {
	Act    int
	Climax bool
}

type AwaitDiceRollPayload struct {
	Reason string
}

type ResolveDiceRollPayload struct {
	Rolls []models.DiceRoll
}

type RecordNPCPayload struct {
	NPC models.NPCRecord
}

type RecordDecisionPayload struct {
	Summary    string
	RecordedAt time.Time
}

type RecordCombatPayload struct {
	Summary models.CombatSummary
}

type CompanionJoinPayload struct {
	Companion models.Companion
}

type CompanionLeavePayload struct {
	CompanionID uuid.UUID
}

type SetAutoPlayVoicePayload struct {
	Enabled bool
}
