package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mbti-chicken/server/engine"
	"mbti-chicken/server/rng"
)

const defaultRisk = 0.5

// Profile holds the named behavioural parameters loaded for one personality
// code. Only "risk" is read by the decision policies.
type Profile map[string]any

// Risk returns the escalation probability, 0.5 when absent or not numeric.
func (p Profile) Risk() float64 {
	v, ok := p["risk"]
	if !ok || v == nil {
		return defaultRisk
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return defaultRisk
}

// MatchContext is what an agent knows about the match it is deciding in.
type MatchContext struct {
	Round        string
	OpponentCode engine.Code
}

// Decision sources.
const (
	SourceRisk     = "risk"
	SourceOracle   = "oracle"
	SourceFallback = "fallback"
)

type Decision struct {
	Action engine.Action
	Source string
	Raw    string // oracle reply, empty in risk mode
}

// Agent is one tournament entrant. It is not modified after NewAgent.
type Agent struct {
	Name        string
	Code        engine.Code
	Profile     Profile
	UseOracle   bool
	Model       string
	Temperature float64

	policy Policy
}

// NewAgent binds a policy to an identity. A nil policy means RiskPolicy.
func NewAgent(name string, code engine.Code, profile Profile, policy Policy) *Agent {
	if profile == nil {
		profile = Profile{}
	}
	if policy == nil {
		policy = RiskPolicy{}
	}
	a := &Agent{Name: name, Code: code, Profile: profile, policy: policy}
	if op, ok := policy.(*OraclePolicy); ok {
		a.UseOracle = true
		a.Model = op.Model
		a.Temperature = op.Temperature
	}
	return a
}

func (a *Agent) Decide(ctx context.Context, src rng.Source, mc MatchContext) (Decision, error) {
	return a.policy.Decide(ctx, a, src, mc)
}

func (a *Agent) String() string { return fmt.Sprintf("%s(%s)", a.Name, a.Code) }
