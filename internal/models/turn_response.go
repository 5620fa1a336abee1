package models

// TurnResponse is the structured payload the narrative service returns for
// one turn. Every field except Narrative is optional; an absent field means
// "no effect". The interpreter must never require an optional field.
type TurnResponse struct {
	Narrative string `json:"narrative"`

	// Numeric deltas
	DamageTaken      *int `json:"damage_taken,omitempty"`
	Healing          *int `json:"healing,omitempty"`
	ExperienceGained *int `json:"experience_gained,omitempty"`

	// Zero or one discovered item
	ItemFound *ItemGrant `json:"item_found,omitempty"`

	// Zero or one quest-progress update
	QuestUpdate *QuestUpdate `json:"quest_update,omitempty"`

	// Status conditions
	ConditionsAdded   []string `json:"conditions_added,omitempty"`
	ConditionsRemoved []string `json:"conditions_removed,omitempty"`

	InspirationGranted bool `json:"inspiration_granted,omitempty"`

	DiceRolls []DiceRoll `json:"dice_rolls,omitempty"`

	Location      *LocationUpdate      `json:"location,omitempty"`
	StoryProgress *StoryProgressUpdate `json:"story_progress,omitempty"`

	NPCReaction         *NPCReaction         `json:"npc_reaction,omitempty"`
	PuzzleResolution    *PuzzleResolution    `json:"puzzle_resolution,omitempty"`
	CombatSummary       *CombatSummary       `json:"combat_summary,omitempty"`
	SkillCheck          *SkillCheck          `json:"skill_check,omitempty"`
	SideQuestSuggestion *SideQuestSuggestion `json:"side_quest_suggestion,omitempty"`
}

// ItemGrant describes a discovered item before it is materialized into
// the inventory.
type ItemGrant struct {
	Name        string   `json:"name"`
	Type        ItemType `json:"type"`
	Description string   `json:"description,omitempty"`
}

// QuestUpdate advances a quest. When MilestoneID is set the named milestone
// completes (which also advances progress); otherwise only Progress moves.
type QuestUpdate struct {
	QuestID     string  `json:"quest_id"`
	MilestoneID *string `json:"milestone_id,omitempty"`
	Progress    int     `json:"progress,omitempty"`
}

// LocationUpdate moves the player and/or reveals map areas.
type LocationUpdate struct {
	Current       string   `json:"current,omitempty"`
	NewAreas      []string `json:"new_areas,omitempty"`
	CompletedArea string   `json:"completed_area,omitempty"`
}

// StoryProgressUpdate is the macro story-arc marker for a turn.
type StoryProgressUpdate struct {
	Act    int  `json:"act,omitempty"`
	Climax bool `json:"climax,omitempty"`
	Ending bool `json:"ending,omitempty"`
}

// NPCReaction is an explicit, authoritative NPC state change.
type NPCReaction struct {
	Name              string      `json:"name"`
	Attitude          NPCAttitude `json:"attitude,omitempty"`
	Dialogue          string      `json:"dialogue,omitempty"`
	InformationGained string      `json:"information_gained,omitempty"`
}

// PuzzleResolution reports the outcome of a puzzle attempt.
type PuzzleResolution struct {
	Solved      bool   `json:"solved"`
	Description string `json:"description,omitempty"`
	Reward      string `json:"reward,omitempty"`
}

// CombatSummary aggregates the mechanical outcome of a combat encounter.
type CombatSummary struct {
	EnemiesDefeated int  `json:"enemies_defeated,omitempty"`
	DamageDealt     int  `json:"damage_dealt,omitempty"`
	DamageTaken     int  `json:"damage_taken,omitempty"`
	CriticalHits    int  `json:"critical_hits,omitempty"`
	Victory         bool `json:"victory,omitempty"`
}

// SkillCheck reports a resolved skill check.
type SkillCheck struct {
	Skill       string `json:"skill"`
	Success     bool   `json:"success"`
	Description string `json:"description,omitempty"`
}

// SideQuestSuggestion proposes an optional side quest. It is surfaced for
// explicit player acceptance and never enters quest state on its own.
type SideQuestSuggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Milestones  []string `json:"milestones,omitempty"`
}
