package state

import (
	"fmt"

	"saga-server/internal/models"
)

func applyAppendEntry(next *models.GameState, p AppendEntryPayload) error {
	if p.Entry.Text == "" {
		return fmt.Errorf("%w: story entry has no text", models.ErrInvalidTransition)
	}
	next.Story = append(next.Story, p.Entry)
	if p.Entry.Role == models.EntryRoleNarrator {
		next.Stats.TurnsTaken++
	}
	// Entry timestamps are the only clock signal the reducer sees.
	if p.Entry.CreatedAt.After(next.UpdatedAt) {
		next.UpdatedAt = p.Entry.CreatedAt
	}
	return nil
}

func applyPatchEntry(next *models.GameState, p PatchEntryPayload) error {
	for i := range next.Story {
		if next.Story[i].ID != p.EntryID {
			continue
		}
		if p.Patch.VoiceURL != nil {
			v := *p.Patch.VoiceURL
			next.Story[i].VoiceURL = &v
		}
		if p.Patch.ImageURL != nil {
			v := *p.Patch.ImageURL
			next.Story[i].ImageURL = &v
		}
		if p.Patch.IsPlaying != nil {
			next.Story[i].IsPlaying = *p.Patch.IsPlaying
		}
		return nil
	}
	return fmt.Errorf("%w: %s", models.ErrEntryNotFound, p.EntryID)
}

func applyMoveLocation(next *models.GameState, p MoveLocationPayload) error {
	if p.To == "" {
		return fmt.Errorf("%w: empty location", models.ErrInvalidTransition)
	}
	next.Location.Current = p.To
	return nil
}

func applyRevealArea(next *models.GameState, p RevealAreaPayload) error {
	if p.Area == "" {
		return fmt.Errorf("%w: empty area", models.ErrInvalidTransition)
	}
	for _, a := range next.Location.RevealedAreas {
		if a == p.Area {
			return nil
		}
	}
	next.Location.RevealedAreas = append(next.Location.RevealedAreas, p.Area)
	return nil
}

func applyCompleteArea(next *models.GameState, p CompleteAreaPayload) error {
	if p.Area == "" {
		return fmt.Errorf("%w: empty area", models.ErrInvalidTransition)
	}
	for _, a := range next.Location.CompletedAreas {
		if a == p.Area {
			return nil
		}
	}
	next.Location.CompletedAreas = append(next.Location.CompletedAreas, p.Area)
	return nil
}

func applyAdvanceStory(next *models.GameState, p AdvanceStoryPayload) error {
	// The act number only moves forward.
	if p.Act > next.Arc.Act {
		next.Arc.Act = p.Act
	}
	if p.Climax {
		next.Arc.ClimaxReached = true
	}
	return nil
}

func applyAwaitDiceRoll(next *models.GameState, p AwaitDiceRollPayload) error {
	next.PendingRoll = &models.DiceRollPrompt{Reason: p.Reason}
	return nil
}

func applyResolveDiceRoll(next *models.GameState, p ResolveDiceRollPayload) error {
	if next.PendingRoll == nil {
		return models.ErrNoPendingDiceRoll
	}
	next.PendingRoll = nil
	// Attach the rolls to the most recent entry so the log shows what
	// was rolled where the prompt appeared.
	if len(next.Story) > 0 && len(p.Rolls) > 0 {
		last := len(next.Story) - 1
		next.Story[last].DiceRolls = append(next.Story[last].DiceRolls, p.Rolls...)
	}
	return nil
}
