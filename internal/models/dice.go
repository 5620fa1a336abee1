package models

// DiceRoll records one resolved dice roll inside a turn.
type DiceRoll struct {
	Notation string `json:"notation"`          // e.g. "1d20"
	Result   int    `json:"result"`
	Purpose  string `json:"purpose,omitempty"` // e.g. "perception check"
}

// DiceRollPrompt marks that the narrative asked the player to roll
// before the story can continue. The UI resolves it via the dice-roll
// endpoint.
type DiceRollPrompt struct {
	Reason string `json:"reason"`
}
