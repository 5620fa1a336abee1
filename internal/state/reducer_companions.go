package state

import (
	"fmt"
	"sort"

	"saga-server/internal/models"
)

func applyCompanionJoin(next *models.GameState, p CompanionJoinPayload) error {
	if p.Companion.Name == "" {
		return fmt.Errorf("%w: companion has no name", models.ErrInvalidTransition)
	}
	if len(next.Companions) >= models.MaxPartySize {
		return fmt.Errorf("%w: party is full", models.ErrInvalidTransition)
	}
	for _, c := range next.Companions {
		if models.NormalizeNPCName(c.Name) == models.NormalizeNPCName(p.Companion.Name) {
			return nil // already in the party
		}
	}
	companion := p.Companion
	companion.Memories = trimMemories(companion.Memories)
	next.Companions = append(next.Companions, companion)
	return nil
}

func applyCompanionLeave(next *models.GameState, p CompanionLeavePayload) error {
	idx := next.FindCompanion(p.CompanionID)
	if idx < 0 {
		return models.ErrCompanionNotFound
	}
	next.Companions = append(next.Companions[:idx], next.Companions[idx+1:]...)
	return nil
}

// trimMemories keeps the memory list within bounds, evicting the oldest
// low-importance entries first.
func trimMemories(memories []models.CompanionMemory) []models.CompanionMemory {
	if len(memories) <= models.MaxCompanionMemories {
		return memories
	}
	sorted := append([]models.CompanionMemory(nil), memories...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Importance != sorted[j].Importance {
			return sorted[i].Importance > sorted[j].Importance
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	sorted = sorted[:models.MaxCompanionMemories]
	// Restore chronological order for display.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}
