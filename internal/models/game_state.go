package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionFlags are the boolean session switches the UI reads directly.
type SessionFlags struct {
	IsDead             bool `json:"is_dead"`
	HasWon             bool `json:"has_won"`
	ChaosDiceAvailable bool `json:"chaos_dice_available"`
	AutoPlayVoice      bool `json:"auto_play_voice"`
}

// GameState is the single mutable aggregate for one adventure session.
// It is owned exclusively by the state store; every other component reads
// a snapshot and requests named transitions, never mutates directly.
type GameState struct {
	SessionID      uuid.UUID        `json:"session_id"`
	Character      CharacterSheet   `json:"character"`
	Story          []StoryEntry     `json:"story"`
	Quests         []QuestProgress  `json:"quests,omitempty"`
	SuggestedQuest *QuestProgress   `json:"suggested_quest,omitempty"`
	Companions     []Companion      `json:"companions,omitempty"`
	World          WorldMemory      `json:"world"`
	Location       LocationState    `json:"location"`
	Arc            StoryArc         `json:"arc"`
	Stats          AchievementStats `json:"stats"`
	Flags          SessionFlags     `json:"flags"`
	PendingRoll    *DiceRollPrompt  `json:"pending_roll,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Clone returns a deep copy of the state. The reducer clones before every
// mutation so applied transitions never alias a caller's snapshot.
func (g GameState) Clone() GameState {
	out := g

	out.Character.Conditions = append([]string(nil), g.Character.Conditions...)
	out.Character.Inventory = append([]Item(nil), g.Character.Inventory...)

	out.Story = make([]StoryEntry, len(g.Story))
	for i, e := range g.Story {
		out.Story[i] = e
		out.Story[i].DiceRolls = append([]DiceRoll(nil), e.DiceRolls...)
		out.Story[i].VoiceURL = clonePtr(e.VoiceURL)
		out.Story[i].ImageURL = clonePtr(e.ImageURL)
	}

	out.Quests = make([]QuestProgress, len(g.Quests))
	for i, q := range g.Quests {
		out.Quests[i] = q
		out.Quests[i].Milestones = append([]Milestone(nil), q.Milestones...)
	}
	if g.SuggestedQuest != nil {
		sq := *g.SuggestedQuest
		sq.Milestones = append([]Milestone(nil), g.SuggestedQuest.Milestones...)
		out.SuggestedQuest = &sq
	}

	out.Companions = make([]Companion, len(g.Companions))
	for i, c := range g.Companions {
		out.Companions[i] = c
		out.Companions[i].Memories = append([]CompanionMemory(nil), c.Memories...)
	}

	out.World.NPCs = make(map[string]NPCRecord, len(g.World.NPCs))
	for k, v := range g.World.NPCs {
		out.World.NPCs[k] = v
	}
	out.World.Decisions = append([]DecisionRecord(nil), g.World.Decisions...)
	out.World.Flags = make(map[string]bool, len(g.World.Flags))
	for k, v := range g.World.Flags {
		out.World.Flags[k] = v
	}

	out.Location.RevealedAreas = append([]string(nil), g.Location.RevealedAreas...)
	out.Location.CompletedAreas = append([]string(nil), g.Location.CompletedAreas...)

	if g.PendingRoll != nil {
		pr := *g.PendingRoll
		out.PendingRoll = &pr
	}

	return out
}

// FindEntry returns a pointer into the Story slice for the entry with the
// given id, or nil. Callers must treat the result as read-only.
func (g *GameState) FindEntry(entryID uuid.UUID) *StoryEntry {
	for i := range g.Story {
		if g.Story[i].ID == entryID {
			return &g.Story[i]
		}
	}
	return nil
}

// FindQuest returns the index of the quest with the given id, or -1.
func (g *GameState) FindQuest(questID uuid.UUID) int {
	for i := range g.Quests {
		if g.Quests[i].ID == questID {
			return i
		}
	}
	return -1
}

// FindCompanion returns the index of the companion with the given id, or -1.
func (g *GameState) FindCompanion(companionID uuid.UUID) int {
	for i := range g.Companions {
		if g.Companions[i].ID == companionID {
			return i
		}
	}
	return -1
}

// ActiveQuests returns the quests that are not yet completed.
func (g *GameState) ActiveQuests() []QuestProgress {
	var active []QuestProgress
	for _, q := range g.Quests {
		if !q.Completed {
			active = append(active, q)
		}
	}
	return active
}

// RecentHistory returns the last n story entries in order.
func (g *GameState) RecentHistory(n int) []StoryEntry {
	if n <= 0 || len(g.Story) == 0 {
		return nil
	}
	if len(g.Story) <= n {
		return append([]StoryEntry(nil), g.Story...)
	}
	return append([]StoryEntry(nil), g.Story[len(g.Story)-n:]...)
}

// CharacterSummary renders the one-line character context sent to the
// narrative service.
func (g *GameState) CharacterSummary() string {
	c := g.Character
	summary := fmt.Sprintf("%s, level %d %s (%d/%d HP)", c.Name, c.Level, c.Class, c.HitPoints, c.MaxHitPoints)
	if len(c.Conditions) > 0 {
		summary += fmt.Sprintf(", conditions: %v", c.Conditions)
	}
	if c.Inspiration {
		summary += ", inspired"
	}
	return summary
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
