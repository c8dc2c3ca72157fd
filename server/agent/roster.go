package agent

import (
	"mbti-chicken/server/engine"
)

// RosterOptions selects the decision mode shared by every agent in a roster.
type RosterOptions struct {
	UseOracle   bool
	Oracle      Completer
	Model       string
	Temperature float64
}

// BuildRoster creates one agent per personality code, in engine.Codes order.
// Codes missing from profiles get an empty profile. Oracle mode without a
// client fails here, before any match is played.
func BuildRoster(profiles map[engine.Code]Profile, opts RosterOptions) ([]*Agent, error) {
	if opts.UseOracle && opts.Oracle == nil {
		return nil, ErrOracleNotConfigured
	}
	out := make([]*Agent, 0, len(engine.Codes))
	for _, code := range engine.Codes {
		var policy Policy = RiskPolicy{}
		if opts.UseOracle {
			policy = &OraclePolicy{Oracle: opts.Oracle, Model: opts.Model, Temperature: opts.Temperature}
		}
		out = append(out, NewAgent("Agent_"+string(code), code, profiles[code], policy))
	}
	return out, nil
}
