package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxCompanionMemories bounds the memory list per companion; the oldest,
// least important memories are evicted first.
const MaxCompanionMemories = 20

// MaxPartySize bounds how many companions can travel with the player.
const MaxPartySize = 3

// CompanionMemory is one remembered moment shared with the player.
type CompanionMemory struct {
	Content    string    `json:"content"`
	Importance int       `json:"importance"` // 1 (trivial) .. 10 (defining)
	CreatedAt  time.Time `json:"created_at"`
}

// Companion is a party member. Companions are created only through an
// explicit join transition and removed only through an explicit dismissal,
// never implicitly.
type Companion struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Relationship string            `json:"relationship"` // e.g. "wary ally", "sworn friend"
	Memories     []CompanionMemory `json:"memories,omitempty"`
	JoinedAt     time.Time         `json:"joined_at"`
}
