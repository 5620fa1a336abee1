package models

import (
	"time"

	"github.com/google/uuid"
)

// EntryRole identifies who produced a story entry.
type EntryRole string

const (
	EntryRolePlayer   EntryRole = "player"
	EntryRoleNarrator EntryRole = "narrator"
	EntryRoleSystem   EntryRole = "system"
)

// StoryEntry is one element of the session's ordered story log.
// Entries are append-only; only VoiceURL, ImageURL and IsPlaying may be
// patched after the fact, when detached media generation completes.
type StoryEntry struct {
	ID        uuid.UUID  `json:"id"`
	Role      EntryRole  `json:"role"`
	Text      string     `json:"text"`
	DiceRolls []DiceRoll `json:"dice_rolls,omitempty"`
	VoiceURL  *string    `json:"voice_url,omitempty"`
	ImageURL  *string    `json:"image_url,omitempty"`
	IsPlaying bool       `json:"is_playing"`
	CreatedAt time.Time  `json:"created_at"`
}

// EntryPatch carries the late-arriving media fields for a story entry.
// A nil field means "leave unchanged".
type EntryPatch struct {
	VoiceURL  *string `json:"voice_url,omitempty"`
	ImageURL  *string `json:"image_url,omitempty"`
	IsPlaying *bool   `json:"is_playing,omitempty"`
}
