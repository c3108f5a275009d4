package game

// Stage is the table's position in the hand lifecycle.
type Stage int

const (
	StageWaiting Stage = iota
	StagePreflop
	StageFlop
	StageTurn
	StageRiver
	StageShowdown
	StageGameOver
)

func (s Stage) String() string {
	switch s {
	case StageWaiting:
		return "WAITING"
	case StagePreflop:
		return "PREFLOP"
	case StageFlop:
		return "FLOP"
	case StageTurn:
		return "TURN"
	case StageRiver:
		return "RIVER"
	case StageShowdown:
		return "SHOWDOWN"
	case StageGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

// IsBetting reports whether the stage is one of the four betting rounds.
func (s Stage) IsBetting() bool {
	return s >= StagePreflop && s <= StageRiver
}
