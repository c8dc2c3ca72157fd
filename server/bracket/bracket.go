package bracket

import (
	"context"
	"errors"
	"fmt"

	"mbti-chicken/server/agent"
	"mbti-chicken/server/engine"
	"mbti-chicken/server/rng"
)

// ErrBracketSize reports a roster that cannot form a full single-elimination
// bracket for the given round names.
var ErrBracketSize = errors.New("bracket size mismatch")

// Record is one resolved match. Column order matches Columns.
type Record struct {
	Round      string        `json:"round"`
	AgentA     string        `json:"agent_a"`
	CodeA      engine.Code   `json:"mbti_a"`
	ActionA    engine.Action `json:"action_a"`
	PayoffA    int           `json:"payoff_a"`
	AgentB     string        `json:"agent_b"`
	CodeB      engine.Code   `json:"mbti_b"`
	ActionB    engine.Action `json:"action_b"`
	PayoffB    int           `json:"payoff_b"`
	Winner     string        `json:"winner"`
	WinnerCode engine.Code   `json:"winner_mbti"`
}

// Columns is the durable column set of a results table, in order.
var Columns = []string{
	"round",
	"agent_a", "mbti_a", "action_a", "payoff_a",
	"agent_b", "mbti_b", "action_b", "payoff_b",
	"winner", "winner_mbti",
}

// Observer is called with every record as soon as it is produced, together
// with the two decisions that led to it.
type Observer func(rec Record, da, db agent.Decision)

type Scheduler struct {
	Rounds   []string
	Observer Observer
}

// Run plays a full tournament. See Scheduler.Run.
func Run(ctx context.Context, agents []*agent.Agent, rounds []string, src rng.Source) (*agent.Agent, []Record, error) {
	s := &Scheduler{Rounds: rounds}
	return s.Run(ctx, agents, src)
}

// Run shuffles a copy of agents once, then plays each round in order, pairing
// neighbours (0,1), (2,3), ... and advancing winners in play order. All
// randomness is drawn from src: the shuffle, then per match the decision of
// the first agent, the decision of the second, and the tie-break if any.
func (s *Scheduler) Run(ctx context.Context, agents []*agent.Agent, src rng.Source) (*agent.Agent, []Record, error) {
	if err := checkSize(len(agents), len(s.Rounds)); err != nil {
		return nil, nil, err
	}

	current := make([]*agent.Agent, len(agents))
	copy(current, agents)
	rng.Shuffle(src, len(current), func(i, j int) { current[i], current[j] = current[j], current[i] })

	records := make([]Record, 0, len(agents)-1)
	for _, round := range s.Rounds {
		winners, recs, err := s.playRound(ctx, round, current, src)
		if err != nil {
			return nil, records, err
		}
		records = append(records, recs...)
		current = winners
	}
	return current[0], records, nil
}

func (s *Scheduler) playRound(ctx context.Context, round string, agents []*agent.Agent, src rng.Source) ([]*agent.Agent, []Record, error) {
	if len(agents)%2 != 0 {
		return nil, nil, fmt.Errorf("%w: round %s has %d agents", ErrBracketSize, round, len(agents))
	}
	winners := make([]*agent.Agent, 0, len(agents)/2)
	recs := make([]Record, 0, len(agents)/2)

	for i := 0; i < len(agents); i += 2 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		a, b := agents[i], agents[i+1]

		da, err := a.Decide(ctx, src, agent.MatchContext{Round: round, OpponentCode: b.Code})
		if err != nil {
			return nil, nil, fmt.Errorf("round %s: %w", round, err)
		}
		db, err := b.Decide(ctx, src, agent.MatchContext{Round: round, OpponentCode: a.Code})
		if err != nil {
			return nil, nil, fmt.Errorf("round %s: %w", round, err)
		}

		pa, pb, w := engine.Resolve(da.Action, db.Action, src)
		winner := a
		if w == 1 {
			winner = b
		}
		rec := Record{
			Round:  round,
			AgentA: a.Name, CodeA: a.Code, ActionA: da.Action, PayoffA: pa,
			AgentB: b.Name, CodeB: b.Code, ActionB: db.Action, PayoffB: pb,
			Winner: winner.Name, WinnerCode: winner.Code,
		}
		winners = append(winners, winner)
		recs = append(recs, rec)
		if s.Observer != nil {
			s.Observer(rec, da, db)
		}
	}
	return winners, recs, nil
}

func checkSize(agents, rounds int) error {
	if rounds < 1 {
		return fmt.Errorf("%w: no rounds given", ErrBracketSize)
	}
	if rounds >= 31 || agents != 1<<rounds {
		return fmt.Errorf("%w: %d agents cannot fill %d rounds (need %d)", ErrBracketSize, agents, rounds, 1<<min(rounds, 30))
	}
	return nil
}

// RoundNames labels the rounds of an n-agent bracket: "R<k>" while more than
// eight agents remain, then QF, SF, F. n must be a power of two >= 2.
func RoundNames(n int) ([]string, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d is not a power of two >= 2", ErrBracketSize, n)
	}
	var out []string
	for k := n; k >= 2; k /= 2 {
		switch k {
		case 8:
			out = append(out, "QF")
		case 4:
			out = append(out, "SF")
		case 2:
			out = append(out, "F")
		default:
			out = append(out, fmt.Sprintf("R%d", k))
		}
	}
	return out, nil
}
