package state

import (
	"fmt"

	"saga-server/internal/models"
)

func applyCompleteMilestone(next *models.GameState, p CompleteMilestonePayload) error {
	idx := next.FindQuest(p.QuestID)
	if idx < 0 {
		return fmt.Errorf("%w: quest %s", models.ErrNotFound, p.QuestID)
	}
	quest := &next.Quests[idx]
	if quest.Completed {
		return nil // completed quests are frozen
	}

	mi := quest.FindMilestone(p.MilestoneID)
	if mi < 0 {
		return fmt.Errorf("%w: milestone %q in quest %s", models.ErrNotFound, p.MilestoneID, p.QuestID)
	}
	quest.Milestones[mi].Completed = true

	// The milestone index only ever advances.
	if mi+1 > quest.CurrentMilestoneIndex {
		quest.CurrentMilestoneIndex = mi + 1
	}

	// Progress follows completed milestones, never backwards.
	completed := 0
	for _, m := range quest.Milestones {
		if m.Completed {
			completed++
		}
	}
	if quest.MaxProgress > 0 && len(quest.Milestones) > 0 {
		p := completed * quest.MaxProgress / len(quest.Milestones)
		if p > quest.Progress {
			quest.Progress = p
		}
	}
	if completed == len(quest.Milestones) {
		quest.Completed = true
		quest.Progress = quest.MaxProgress
	}
	return nil
}

func applyUpdateQuestProgress(next *models.GameState, p UpdateQuestProgressPayload) error {
	idx := next.FindQuest(p.QuestID)
	if idx < 0 {
		return fmt.Errorf("%w: quest %s", models.ErrNotFound, p.QuestID)
	}
	quest := &next.Quests[idx]
	if quest.Completed {
		return nil
	}

	progress := p.Progress
	if progress > quest.MaxProgress {
		progress = quest.MaxProgress
	}
	// Monotonic: ignore regressions.
	if progress > quest.Progress {
		quest.Progress = progress
	}
	if quest.MaxProgress > 0 && quest.Progress >= quest.MaxProgress {
		quest.Completed = true
	}
	return nil
}

func applySuggestSideQuest(next *models.GameState, p SuggestSideQuestPayload) error {
	if p.Quest.Title == "" {
		return fmt.Errorf("%w: suggested quest has no title", models.ErrInvalidTransition)
	}
	quest := p.Quest
	next.SuggestedQuest = &quest
	return nil
}

func applyAcceptSideQuest(next *models.GameState) {
	if next.SuggestedQuest == nil {
		return
	}
	next.Quests = append(next.Quests, *next.SuggestedQuest)
	next.SuggestedQuest = nil
}
