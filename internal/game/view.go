package game

// SnapshotLogLines is how many log lines a view carries.
const SnapshotLogLines = 8

// SeatView is one seat as seen by a particular viewer.
type SeatView struct {
	Name       string   `json:"name"`
	IsBot      bool     `json:"is_bot"`
	Avatar     string   `json:"avatar,omitempty"`
	Stack      int      `json:"stack"`
	CurrentBet int      `json:"current_bet"`
	BuyInTotal int      `json:"buy_in_total"`
	Profit     int      `json:"profit"`
	Folded     bool     `json:"folded"`
	AllIn      bool     `json:"all_in"`
	Role       Role     `json:"role,omitempty"`
	LastAction string   `json:"last_action,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Cards      []string `json:"cards,omitempty"` // nil when hidden from the viewer
	IsTurn     bool     `json:"is_turn"`
	IsWinner   bool     `json:"is_winner"`
}

// TableView is a read-only picture of the table for one viewer.
type TableView struct {
	HandID         string     `json:"hand_id,omitempty"`
	HandNumber     int        `json:"hand_number"`
	Stage          string     `json:"stage"`
	HandActive     bool       `json:"hand_active"`
	AwaitingRunout bool       `json:"awaiting_runout"`
	Pot            int        `json:"pot"`
	Board          []string   `json:"board"`
	HighBet        int        `json:"high_bet"`
	MinRaiseTo     int        `json:"min_raise_to"`
	Turn           string     `json:"turn,omitempty"`
	Dealer         int        `json:"dealer"`
	Seats          []SeatView `json:"seats"`
	Log            []string   `json:"log"`
	Memory         []string   `json:"memory"`
	Winners        []string   `json:"winners,omitempty"`
}

// View builds the snapshot seen by viewer. The viewer sees their own cards;
// everyone still in the hand is revealed once it is over.
func (t *Table) View(viewer string) TableView {
	v := TableView{
		HandID:         t.HandID,
		HandNumber:     t.HandNumber,
		Stage:          t.Stage.String(),
		HandActive:     t.HandActive,
		AwaitingRunout: t.AwaitingRunout(),
		Pot:            t.Pot,
		Board:          cardStrings(t.Board),
		HighBet:        t.HighBet,
		MinRaiseTo:     t.MinRaiseTo(),
		Dealer:         t.DealerPos,
		Log:            t.RecentLog(SnapshotLogLines),
		Memory:         t.Memory.Entries(),
		Winners:        append([]string(nil), t.Winners...),
	}
	if p := t.Current(); p != nil {
		v.Turn = p.Name
	}
	winners := make(map[string]bool, len(t.Winners))
	for _, w := range t.Winners {
		winners[w] = true
	}
	handOver := !t.HandActive && t.HandNumber > 0
	for i, p := range t.Players {
		s := SeatView{
			Name:       p.Name,
			IsBot:      p.IsBot,
			Avatar:     p.Avatar,
			Stack:      p.Stack,
			CurrentBet: p.CurrentBet,
			BuyInTotal: p.BuyInTotal,
			Profit:     p.Profit(),
			Folded:     p.Folded,
			AllIn:      p.AllIn,
			Role:       p.Role,
			LastAction: p.LastAction,
			Reasoning:  p.Reasoning,
			IsTurn:     i == t.CurrentIdx,
			IsWinner:   winners[p.Name],
		}
		if p.Name == viewer || (handOver && !p.Folded) {
			s.Cards = cardStrings(p.HoleCards)
		}
		v.Seats = append(v.Seats, s)
	}
	return v
}
