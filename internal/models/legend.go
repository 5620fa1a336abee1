package models

import (
	"time"

	"github.com/google/uuid"
)

// Legend is the record appended to the hall of legends when a player
// wins an adventure.
type Legend struct {
	ID             uuid.UUID `json:"id" db:"id"`
	CharacterName  string    `json:"character_name" db:"character_name"`
	CharacterClass string    `json:"character_class" db:"character_class"`
	Level          int       `json:"level" db:"level"`
	Title          string    `json:"title" db:"title"`
	Summary        string    `json:"summary" db:"summary"`
	ImageURL       *string   `json:"image_url,omitempty" db:"image_url"`

	EnemiesDefeated int `json:"enemies_defeated" db:"enemies_defeated"`
	PuzzlesSolved   int `json:"puzzles_solved" db:"puzzles_solved"`
	CriticalHits    int `json:"critical_hits" db:"critical_hits"`
	TurnsTaken      int `json:"turns_taken" db:"turns_taken"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
