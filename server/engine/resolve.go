package engine

import "mbti-chicken/server/rng"

type Payoff struct{ A, B int }

// payoffs[a][b] is indexed by the Action values of the first and second player.
var payoffs = [2][2]Payoff{
	Escalate: {Escalate: {-10, -10}, Yield: {5, -5}},
	Yield:    {Escalate: {-5, 5}, Yield: {0, 0}},
}

// PayoffFor looks up the fixed matrix entry for (a, b).
func PayoffFor(a, b Action) Payoff { return payoffs[a][b] }

// Resolve scores one match and names the winner (0 = a, 1 = b). A draw is
// taken from src only when the payoffs are equal.
func Resolve(a, b Action, src rng.Source) (pa, pb, winner int) {
	p := PayoffFor(a, b)
	switch {
	case p.A > p.B:
		return p.A, p.B, 0
	case p.B > p.A:
		return p.A, p.B, 1
	}
	if src.Float64() < 0.5 {
		return p.A, p.B, 0
	}
	return p.A, p.B, 1
}
