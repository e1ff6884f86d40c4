package model

// Side is the direction of a trading signal or position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Pair is a pair of symbols whose returns are highly correlated.
type Pair struct {
	A           string
	B           string
	Correlation float64
}

// Signal is a directional instruction for one symbol, produced when a
// correlated pair's return spread diverges.
type Signal struct {
	Symbol string
	Side   Side
	// Pair identifies the correlated pair that produced the signal.
	Pair Pair
	// ZScore is the spread z-score that triggered the signal.
	ZScore float64
}
