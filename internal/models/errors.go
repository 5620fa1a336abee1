package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource Errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = errors.New("adventure session not found")
	ErrEntryNotFound   = errors.New("story entry not found")
	ErrLegendNotFound  = errors.New("legend not found")

	// Turn Pipeline Errors
	ErrTurnInProgress    = errors.New("a turn is already in progress for this session")
	ErrSessionEnded      = errors.New("adventure session has ended")
	ErrEmptyAction       = errors.New("player action text is empty")
	ErrNoPendingDiceRoll = errors.New("no dice roll is pending for this session")
	ErrNoSuggestedQuest  = errors.New("no side quest is pending acceptance")
	ErrCompanionNotFound = errors.New("companion not found")

	// State Transition Errors
	ErrInvalidTransition        = errors.New("invalid state transition")
	ErrInvalidTransitionPayload = errors.New("transition payload has unexpected type")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
