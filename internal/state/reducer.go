package state

import (
	"fmt"

	"saga-server/internal/models"
)

// Apply is the reducer: a pure function of (prior state, transition) that
// returns the next state. It never performs I/O and never reads the clock;
// the caller's snapshot is left untouched.
func Apply(prior models.GameState, t Transition) (models.GameState, error) {
	next := prior.Clone()

	var err error
	switch t.Kind {
	case KindAppendEntry:
		err = applyWith(&next, t, applyAppendEntry)
	case KindPatchEntry:
		err = applyWith(&next, t, applyPatchEntry)
	case KindDamage:
		err = applyWith(&next, t, applyDamage)
	case KindBeginDying:
		applyBeginDying(&next)
	case KindHeal:
		err = applyWith(&next, t, applyHeal)
	case KindRecordDeathSave:
		err = applyWith(&next, t, applyRecordDeathSave)
	case KindGrantExperience:
		err = applyWith(&next, t, applyGrantExperience)
	case KindAddItem:
		err = applyWith(&next, t, applyAddItem)
	case KindAddCondition:
		err = applyWith(&next, t, applyAddCondition)
	case KindRemoveCondition:
		err = applyWith(&next, t, applyRemoveCondition)
	case KindGrantInspiration:
		next.Character.Inspiration = true
	case KindCompleteMilestone:
		err = applyWith(&next, t, applyCompleteMilestone)
	case KindUpdateQuestProgress:
		err = applyWith(&next, t, applyUpdateQuestProgress)
	case KindSuggestSideQuest:
		err = applyWith(&next, t, applySuggestSideQuest)
	case KindAcceptSideQuest:
		applyAcceptSideQuest(&next)
	case KindRejectSideQuest:
		next.SuggestedQuest = nil
	case KindMoveLocation:
		err = applyWith(&next, t, applyMoveLocation)
	case KindRevealArea:
		err = applyWith(&next, t, applyRevealArea)
	case KindCompleteArea:
		err = applyWith(&next, t, applyCompleteArea)
	case KindAdvanceStory:
		err = applyWith(&next, t, applyAdvanceStory)
	case KindCompleteStory:
		next.Arc.EndingTriggered = true
	case KindVictory:
		next.Flags.HasWon = true
	case KindAwaitDiceRoll:
		err = applyWith(&next, t, applyAwaitDiceRoll)
	case KindResolveDiceRoll:
		err = applyWith(&next, t, applyResolveDiceRoll)
	case KindEnableChaosDice:
		next.Flags.ChaosDiceAvailable = true
	case KindRecordNPC:
		err = applyWith(&next, t, applyRecordNPC)
	case KindRecordDecision:
		err = applyWith(&next, t, applyRecordDecision)
	case KindRecordPuzzleSolved:
		next.Stats.PuzzlesSolved++
	case KindRecordCombat:
		err = applyWith(&next, t, applyRecordCombat)
	case KindCompanionJoin:
		err = applyWith(&next, t, applyCompanionJoin)
	case KindCompanionLeave:
		err = applyWith(&next, t, applyCompanionLeave)
	case KindSetAutoPlayVoice:
		err = applyWith(&next, t, applySetAutoPlayVoice)
	default:
		return prior, fmt.Errorf("%w: unknown kind %q", models.ErrInvalidTransition, t.Kind)
	}

	if err != nil {
		return prior, err
	}
	return next, nil
}

// applyWith asserts the payload type and delegates to the typed reducer.
func applyWith[P any](next *models.GameState, t Transition, fn func(*models.GameState, P) error) error {
	payload, ok := t.Payload.(P)
	if !ok {
		return fmt.Errorf("%w: kind %q got %T", models.ErrInvalidTransitionPayload, t.Kind, t.Payload)
	}
	return fn(next, payload)
}
