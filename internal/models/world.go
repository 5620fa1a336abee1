package models

import (
	"strings"
	"time"
)

// NPCAttitude is the NPC's current disposition toward the player.
type NPCAttitude string

const (
	NPCAttitudeFriendly NPCAttitude = "friendly"
	NPCAttitudeNeutral  NPCAttitude = "neutral"
	NPCAttitudeHostile  NPCAttitude = "hostile"
)

// NPCRecord is a world-memory entry for a known non-player character.
type NPCRecord struct {
	Name              string      `json:"name"`
	Attitude          NPCAttitude `json:"attitude"`
	Location          string      `json:"location,omitempty"`
	LastDialogue      string      `json:"last_dialogue,omitempty"`
	FirstMetAt        time.Time   `json:"first_met_at"`
	LastInteractionAt time.Time   `json:"last_interaction_at"`
}

// DecisionRecord captures a notable player decision or outcome the
// narrative should stay consistent with.
type DecisionRecord struct {
	Summary    string    `json:"summary"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WorldMemory is the session's persistent knowledge about the world:
// known NPCs (keyed by normalized name), recorded decisions and flags.
type WorldMemory struct {
	NPCs      map[string]NPCRecord `json:"npcs,omitempty"`
	Decisions []DecisionRecord     `json:"decisions,omitempty"`
	Flags     map[string]bool      `json:"flags,omitempty"`
}

// NormalizeNPCName produces the lookup key for the NPC map.
func NormalizeNPCName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LocationState tracks where the player is and the map exploration state.
type LocationState struct {
	Current        string   `json:"current"`
	RevealedAreas  []string `json:"revealed_areas,omitempty"`
	CompletedAreas []string `json:"completed_areas,omitempty"`
}

// StoryArc tracks macro story progress across turns.
type StoryArc struct {
	Act             int  `json:"act"`
	ClimaxReached   bool `json:"climax_reached"`
	EndingTriggered bool `json:"ending_triggered"`
}

// AchievementStats are the numeric counters persisted into a legend
// record on victory.
type AchievementStats struct {
	EnemiesDefeated int `json:"enemies_defeated"`
	DamageDealt     int `json:"damage_dealt"`
	DamageTaken     int `json:"damage_taken"`
	CriticalHits    int `json:"critical_hits"`
	PuzzlesSolved   int `json:"puzzles_solved"`
	TurnsTaken      int `json:"turns_taken"`
}
