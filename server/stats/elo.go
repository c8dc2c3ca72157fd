package stats

import (
	"math"
	"sort"

	"mbti-chicken/server/engine"
)

// Elo keeps one rating per personality code across a match log.
type Elo struct {
	Start   float64
	K       float64
	ratings map[engine.Code]float64
	games   map[engine.Code]int
}

func NewElo(start, k float64) *Elo {
	return &Elo{Start: start, K: k, ratings: map[engine.Code]float64{}, games: map[engine.Code]int{}}
}

func (e *Elo) Rating(c engine.Code) float64 {
	if r, ok := e.ratings[c]; ok {
		return r
	}
	return e.Start
}

func (e *Elo) expect(a, b engine.Code) (ea, eb float64) {
	ea = 1.0 / (1.0 + math.Pow(10, (e.Rating(b)-e.Rating(a))/400.0))
	return ea, 1.0 - ea
}

// Update applies one match. sa is 1 when a won, 0 when b won; margin is
// payoffA - payoffB and scales K (a tie-break win moves ratings less than a
// clean escalate-vs-yield win). Returns the applied deltas.
func (e *Elo) Update(a, b engine.Code, sa float64, margin int) (dA, dB float64) {
	ea, eb := e.expect(a, b)
	k := e.K * marginScale(margin) * decay(min(e.games[a], e.games[b]))
	dA = k * (sa - ea)
	dB = k * ((1 - sa) - eb)
	e.ratings[a] = e.Rating(a) + dA
	e.ratings[b] = e.Rating(b) + dB
	e.games[a]++
	e.games[b]++
	return dA, dB
}

// Ranked lists every rated code, best first.
func (e *Elo) Ranked() []Rating {
	out := make([]Rating, 0, len(e.ratings))
	for c, r := range e.ratings {
		out = append(out, Rating{Code: c, Rating: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func marginScale(margin int) float64 {
	m := math.Abs(float64(margin))
	return clamp(0.75+0.35*math.Tanh(m/8.0), 0.75, 1.1)
}

func decay(games int) float64 {
	return 1.0 / (1.0 + 0.01*float64(games))
}
