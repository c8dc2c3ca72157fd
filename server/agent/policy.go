package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mbti-chicken/server/engine"
	"mbti-chicken/server/rng"
)

// ErrOracleNotConfigured is returned when an agent is set to consult the
// oracle but no client (credential) is available. It aborts the tournament.
var ErrOracleNotConfigured = errors.New("oracle mode requested but no oracle client is configured")

// Policy chooses an action for a under the given match context.
type Policy interface {
	Decide(ctx context.Context, a *Agent, src rng.Source, mc MatchContext) (Decision, error)
}

// Completer is the oracle boundary: prompt text in, free-form text out.
type Completer interface {
	Complete(ctx context.Context, model string, temperature float64, prompt string) (string, error)
}

// RiskPolicy escalates with probability Profile.Risk(). One draw per call.
type RiskPolicy struct{}

func (RiskPolicy) Decide(_ context.Context, a *Agent, src rng.Source, _ MatchContext) (Decision, error) {
	return Decision{Action: riskDraw(a.Profile, src), Source: SourceRisk}, nil
}

func riskDraw(p Profile, src rng.Source) engine.Action {
	if src.Float64() < p.Risk() {
		return engine.Escalate
	}
	return engine.Yield
}

// OraclePolicy asks the oracle once and falls back to the risk draw when the
// call fails or the reply carries no action word.
type OraclePolicy struct {
	Oracle      Completer
	Model       string
	Temperature float64
}

func (p *OraclePolicy) Decide(ctx context.Context, a *Agent, src rng.Source, mc MatchContext) (Decision, error) {
	if p == nil || p.Oracle == nil {
		return Decision{}, fmt.Errorf("%s: %w", a.Name, ErrOracleNotConfigured)
	}
	prompt := BuildPrompt(a.Code, mc.OpponentCode, mc.Round)
	raw, err := p.Oracle.Complete(ctx, p.Model, p.Temperature, prompt)
	if err != nil {
		log.Printf("oracle fallback for %s (%s): %v", a.Name, p.Model, err)
		return Decision{Action: riskDraw(a.Profile, src), Source: SourceFallback}, nil
	}
	act, ok := ParseReply(raw)
	if !ok {
		log.Printf("oracle fallback for %s (%s): unparsable reply %q", a.Name, p.Model, truncate(raw, 120))
		return Decision{Action: riskDraw(a.Profile, src), Source: SourceFallback, Raw: raw}, nil
	}
	return Decision{Action: act, Source: SourceOracle, Raw: raw}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
