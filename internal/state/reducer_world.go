package state

import (
	"fmt"

	"saga-server/internal/models"
)

func applyRecordNPC(next *models.GameState, p RecordNPCPayload) error {
	if p.NPC.Name == "" {
		return fmt.Errorf("%w: NPC has no name", models.ErrInvalidTransition)
	}
	key := models.NormalizeNPCName(p.NPC.Name)
	if next.World.NPCs == nil {
		next.World.NPCs = make(map[string]models.NPCRecord)
	}

	existing, known := next.World.NPCs[key]
	if !known {
		next.World.NPCs[key] = p.NPC
		return nil
	}

	// Merge: later information wins, absent fields keep the old value.
	if p.NPC.Attitude != "" {
		existing.Attitude = p.NPC.Attitude
	}
	if p.NPC.Location != "" {
		existing.Location = p.NPC.Location
	}
	if p.NPC.LastDialogue != "" {
		existing.LastDialogue = p.NPC.LastDialogue
	}
	if p.NPC.LastInteractionAt.After(existing.LastInteractionAt) {
		existing.LastInteractionAt = p.NPC.LastInteractionAt
	}
	next.World.NPCs[key] = existing
	return nil
}

func applyRecordDecision(next *models.GameState, p RecordDecisionPayload) error {
	if p.Summary == "" {
		return fmt.Errorf("%w: empty decision summary", models.ErrInvalidTransition)
	}
	next.World.Decisions = append(next.World.Decisions, models.DecisionRecord{
		Summary:    p.Summary,
		RecordedAt: p.RecordedAt,
	})
	return nil
}

func applyRecordCombat(next *models.GameState, p RecordCombatPayload) error {
	next.Stats.EnemiesDefeated += p.Summary.EnemiesDefeated
	next.Stats.DamageDealt += p.Summary.DamageDealt
	next.Stats.DamageTaken += p.Summary.DamageTaken
	next.Stats.CriticalHits += p.Summary.CriticalHits
	return nil
}
