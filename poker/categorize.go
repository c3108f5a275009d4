package poker

// HoleCardCategory is a coarse preflop strength bucket.
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
	CategoryUnknown HoleCardCategory = "Unknown"
)

// CategorizeHoleCards buckets a starting hand:
// Premium (JJ+, AK), Strong (TT, AQ, AJ), Medium (77-99, suited broadway),
// Weak (22-66, suited connectors and one-gappers), Trash (the rest).
func CategorizeHoleCards(hole [2]Card) HoleCardCategory {
	if !hole[0].Valid() || !hole[1].Valid() {
		return CategoryUnknown
	}
	lo, hi := hole[0].Rank(), hole[1].Rank()
	if lo > hi {
		lo, hi = hi, lo
	}
	suited := hole[0].Suit() == hole[1].Suit()

	if lo == hi {
		switch {
		case lo >= Jack:
			return CategoryPremium
		case lo == Ten:
			return CategoryStrong
		case lo >= Seven:
			return CategoryMedium
		default:
			return CategoryWeak
		}
	}

	switch {
	case hi == Ace && lo == King:
		return CategoryPremium
	case hi == Ace && lo >= Jack:
		return CategoryStrong
	case suited && lo >= Ten:
		return CategoryMedium
	case suited && hi-lo <= 2:
		return CategoryWeak
	}
	return CategoryTrash
}
