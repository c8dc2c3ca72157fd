package judge

import (
	"sort"

	"mbti-chicken/server/bracket"
	"mbti-chicken/server/engine"
)

// BestResponse is the action that maximises the payoff against opp.
func BestResponse(opp engine.Action) engine.Action {
	best := engine.Escalate
	for _, a := range engine.Actions {
		if engine.PayoffFor(a, opp).A > engine.PayoffFor(best, opp).A {
			best = a
		}
	}
	return best
}

// Regret is the payoff given up by playing act instead of the best response.
func Regret(act, opp engine.Action) int {
	return engine.PayoffFor(BestResponse(opp), opp).A - engine.PayoffFor(act, opp).A
}

// Accuracy counts how often a code played the best response to what its
// opponent actually did.
type Accuracy struct {
	Code   engine.Code `json:"mbti"`
	Good   int         `json:"good"`
	Total  int         `json:"total"`
	Regret int         `json:"regret"`
}

func (a Accuracy) Ratio() float64 {
	if a.Total <= 0 {
		return 0
	}
	return float64(a.Good) / float64(a.Total)
}

// Evaluate scores every decision in recs, both seats, grouped by code.
func Evaluate(recs []bracket.Record) []Accuracy {
	by := map[engine.Code]*Accuracy{}
	add := func(code engine.Code, act, opp engine.Action) {
		acc, ok := by[code]
		if !ok {
			acc = &Accuracy{Code: code}
			by[code] = acc
		}
		acc.Total++
		r := Regret(act, opp)
		acc.Regret += r
		if r == 0 {
			acc.Good++
		}
	}
	for _, r := range recs {
		add(r.CodeA, r.ActionA, r.ActionB)
		add(r.CodeB, r.ActionB, r.ActionA)
	}
	out := make([]Accuracy, 0, len(by))
	for _, a := range by {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ratio() != out[j].Ratio() {
			return out[i].Ratio() > out[j].Ratio()
		}
		return out[i].Code < out[j].Code
	})
	return out
}
