package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"mbti-chicken/server/bracket"
	"mbti-chicken/server/engine"
	"mbti-chicken/server/judge"
)

type CodeCount struct {
	Code  engine.Code `json:"mbti"`
	Count int         `json:"wins"`
}

type TraitCount struct {
	Letter string `json:"letter"`
	Count  int    `json:"wins"`
}

// ActionRate is how often one code escalated, with a Wilson 95% interval.
type ActionRate struct {
	Code      engine.Code `json:"mbti"`
	Escalates int         `json:"escalates"`
	Decisions int         `json:"decisions"`
	Rate      float64     `json:"rate"`
	Low       float64     `json:"ci_low"`
	High      float64     `json:"ci_high"`
}

type Rating struct {
	Code   engine.Code `json:"mbti"`
	Rating float64     `json:"elo"`
}

type Summary struct {
	Matches     int                     `json:"matches"`
	WinsByCode  []CodeCount             `json:"wins_by_mbti"`
	WinsByTrait map[string][]TraitCount `json:"wins_by_trait"`
	Titles      []CodeCount             `json:"titles"`
	Escalation  []ActionRate            `json:"escalation"`
	Ratings     []Rating                `json:"elo"`
	BestReplies []judge.Accuracy        `json:"best_replies"`
}

// Summarize aggregates a match log. Records are taken in log order, which
// matters only for the Elo ratings.
func Summarize(recs []bracket.Record) Summary {
	s := Summary{Matches: len(recs), WinsByTrait: map[string][]TraitCount{}}
	if len(recs) == 0 {
		return s
	}

	wins := map[engine.Code]int{}
	traits := map[string]map[string]int{}
	titles := map[engine.Code]int{}
	esc := map[engine.Code]int{}
	dec := map[engine.Code]int{}
	finalRound := recs[len(recs)-1].Round
	elo := NewElo(1500, 24)

	for _, r := range recs {
		wins[r.WinnerCode]++
		for i, axis := range engine.TraitAxes {
			letter := r.WinnerCode.Trait(i)
			if letter == "" {
				continue
			}
			if traits[axis] == nil {
				traits[axis] = map[string]int{}
			}
			traits[axis][letter]++
		}
		if r.Round == finalRound {
			titles[r.WinnerCode]++
		}
		tally := func(code engine.Code, act engine.Action) {
			dec[code]++
			if act == engine.Escalate {
				esc[code]++
			}
		}
		tally(r.CodeA, r.ActionA)
		tally(r.CodeB, r.ActionB)
		sa := 0.0
		if r.Winner == r.AgentA {
			sa = 1
		}
		elo.Update(r.CodeA, r.CodeB, sa, r.PayoffA-r.PayoffB)
	}

	s.WinsByCode = sortCounts(wins)
	s.Titles = sortCounts(titles)
	for _, axis := range engine.TraitAxes {
		var tc []TraitCount
		for letter, n := range traits[axis] {
			tc = append(tc, TraitCount{Letter: letter, Count: n})
		}
		sort.Slice(tc, func(i, j int) bool {
			if tc[i].Count != tc[j].Count {
				return tc[i].Count > tc[j].Count
			}
			return tc[i].Letter < tc[j].Letter
		})
		s.WinsByTrait[axis] = tc
	}
	for code, n := range dec {
		lo, hi := WilsonCI95(esc[code], 0, n)
		s.Escalation = append(s.Escalation, ActionRate{
			Code: code, Escalates: esc[code], Decisions: n,
			Rate: float64(esc[code]) / float64(n), Low: lo, High: hi,
		})
	}
	sort.Slice(s.Escalation, func(i, j int) bool {
		if s.Escalation[i].Rate != s.Escalation[j].Rate {
			return s.Escalation[i].Rate > s.Escalation[j].Rate
		}
		return s.Escalation[i].Code < s.Escalation[j].Code
	})
	s.Ratings = elo.Ranked()
	s.BestReplies = judge.Evaluate(recs)
	return s
}

func sortCounts(m map[engine.Code]int) []CodeCount {
	out := make([]CodeCount, 0, len(m))
	for c, n := range m {
		out = append(out, CodeCount{Code: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Write prints s as plain-text tables.
func (s Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\nWin counts by MBTI (%d matches):\n", s.Matches)
	fmt.Fprintln(tw, "mbti\twins")
	for _, c := range s.WinsByCode {
		fmt.Fprintf(tw, "%s\t%d\n", c.Code, c.Count)
	}
	fmt.Fprintln(tw, "\nWins by trait:")
	for _, axis := range engine.TraitAxes {
		fmt.Fprintf(tw, "%s:\n", axis)
		for _, t := range s.WinsByTrait[axis] {
			fmt.Fprintf(tw, "%s\t%d\n", t.Letter, t.Count)
		}
	}
	if len(s.Titles) > 0 {
		fmt.Fprintln(tw, "\nTitles:")
		for _, c := range s.Titles {
			fmt.Fprintf(tw, "%s\t%d\n", c.Code, c.Count)
		}
	}
	fmt.Fprintln(tw, "\nEscalation rate (95% CI):")
	for _, r := range s.Escalation {
		fmt.Fprintf(tw, "%s\t%d/%d\t%.2f\t[%.2f, %.2f]\n", r.Code, r.Escalates, r.Decisions, r.Rate, r.Low, r.High)
	}
	fmt.Fprintln(tw, "\nElo:")
	for _, r := range s.Ratings {
		fmt.Fprintf(tw, "%s\t%.1f\n", r.Code, r.Rating)
	}
	fmt.Fprintln(tw, "\nBest replies (regret in payoff points):")
	for _, a := range s.BestReplies {
		fmt.Fprintf(tw, "%s\t%d/%d\t%.2f\t%d\n", a.Code, a.Good, a.Total, a.Ratio(), a.Regret)
	}
	return tw.Flush()
}

// WilsonCI95 for a Bernoulli rate using successes/ties/total.
func WilsonCI95(wins, ties, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := (float64(wins) + 0.5*float64(ties)) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}
