package game

import "errors"

// Host misuse errors. Illegal poker actions are never errors: they are
// normalized to the nearest legal move.
var (
	ErrHandInProgress   = errors.New("hand in progress")
	ErrNoHandInProgress = errors.New("no hand in progress")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrGameOver         = errors.New("game over")
	ErrRoundInProgress  = errors.New("betting round still in progress")
	ErrSeatLimit        = errors.New("seat count out of range")
)
