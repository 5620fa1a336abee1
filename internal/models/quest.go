package models

import "github.com/google/uuid"

// Milestone is a named sub-goal inside a quest.
type Milestone struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// QuestProgress tracks one quest through its milestones.
//
// Invariants enforced by the state reducer: CurrentMilestoneIndex only
// advances forward, and Progress is monotonically non-decreasing until
// the quest completes.
type QuestProgress struct {
	ID                    uuid.UUID   `json:"id"`
	Title                 string      `json:"title"`
	Description           string      `json:"description,omitempty"`
	Milestones            []Milestone `json:"milestones"`
	CurrentMilestoneIndex int         `json:"current_milestone_index"`
	Progress              int         `json:"progress"`
	MaxProgress           int         `json:"max_progress"`
	IsMainQuest           bool        `json:"is_main_quest"`
	Completed             bool        `json:"completed"`
}

// FindMilestone returns the index of the milestone with the given id, or -1.
func (q *QuestProgress) FindMilestone(milestoneID string) int {
	for i, m := range q.Milestones {
		if m.ID == milestoneID {
			return i
		}
	}
	return -1
}
