package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbti-chicken/server/engine"
	"mbti-chicken/server/rng"
)

type stubOracle struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (s *stubOracle) Complete(_ context.Context, _ string, _ float64, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

type fixedSource struct {
	val   float64
	draws int
}

func (f *fixedSource) Float64() float64 { f.draws++; return f.val }
func (f *fixedSource) Intn(int) int     { f.draws++; return 0 }

var ctx = context.Background()

func TestProfileRisk(t *testing.T) {
	assert.Equal(t, 0.5, Profile{}.Risk())
	assert.Equal(t, 0.5, Profile(nil).Risk())
	assert.Equal(t, 0.9, Profile{"risk": 0.9}.Risk())
	assert.Equal(t, 1.0, Profile{"risk": 1}.Risk())
	assert.Equal(t, 0.25, Profile{"risk": "0.25"}.Risk())
	assert.Equal(t, 0.5, Profile{"risk": "high"}.Risk())
}

func TestRiskPolicy(t *testing.T) {
	a := NewAgent("A", "ENTJ", Profile{"risk": 0.6}, nil)
	src := &fixedSource{val: 0.59}
	d, err := a.Decide(ctx, src, MatchContext{Round: "QF"})
	require.NoError(t, err)
	assert.Equal(t, engine.Escalate, d.Action)
	assert.Equal(t, SourceRisk, d.Source)
	assert.Equal(t, 1, src.draws)

	d, err = a.Decide(ctx, &fixedSource{val: 0.6}, MatchContext{})
	require.NoError(t, err)
	assert.Equal(t, engine.Yield, d.Action)
}

func TestRiskPolicyExtremes(t *testing.T) {
	src := rng.New(9)
	always := NewAgent("A", "ESTP", Profile{"risk": 1.0}, nil)
	never := NewAgent("B", "ISFJ", Profile{"risk": 0.0}, nil)
	for i := 0; i < 200; i++ {
		d, _ := always.Decide(ctx, src, MatchContext{})
		require.Equal(t, engine.Escalate, d.Action)
		d, _ = never.Decide(ctx, src, MatchContext{})
		require.Equal(t, engine.Yield, d.Action)
	}
}

func TestOraclePolicyParsedReply(t *testing.T) {
	o := &stubOracle{reply: "I choose to YIELD."}
	a := NewAgent("A", "INFP", Profile{"risk": 1.0}, &OraclePolicy{Oracle: o, Model: "m", Temperature: 0.2})
	src := &fixedSource{val: 0}
	d, err := a.Decide(ctx, src, MatchContext{Round: "SF", OpponentCode: "ESTJ"})
	require.NoError(t, err)
	assert.Equal(t, engine.Yield, d.Action)
	assert.Equal(t, SourceOracle, d.Source)
	assert.Zero(t, src.draws)
	assert.Equal(t, 1, o.calls)
	assert.True(t, a.UseOracle)
	assert.Equal(t, "m", a.Model)

	p := o.prompts[0]
	assert.Contains(t, p, "INFP")
	assert.Contains(t, p, "ESTJ")
	assert.Contains(t, p, "round SF")
}

func TestOraclePolicyFallbackOnUnparsable(t *testing.T) {
	o := &stubOracle{reply: "I would rather swerve, honestly."}
	a := NewAgent("A", "INFP", Profile{"risk": 0.3}, &OraclePolicy{Oracle: o})
	src := rng.New(5)
	esc := 0
	const n = 4000
	for i := 0; i < n; i++ {
		d, err := a.Decide(ctx, src, MatchContext{})
		require.NoError(t, err)
		require.True(t, d.Action.Valid())
		require.Equal(t, SourceFallback, d.Source)
		if d.Action == engine.Escalate {
			esc++
		}
	}
	assert.Equal(t, n, o.calls)
	assert.InDelta(t, 0.3, float64(esc)/n, 0.04)
}

func TestOraclePolicyFallbackOnError(t *testing.T) {
	o := &stubOracle{err: errors.New("connection refused")}
	a := NewAgent("A", "ISTJ", Profile{"risk": 1.0}, &OraclePolicy{Oracle: o})
	src := &fixedSource{val: 0.5}
	d, err := a.Decide(ctx, src, MatchContext{})
	require.NoError(t, err)
	assert.Equal(t, engine.Escalate, d.Action)
	assert.Equal(t, SourceFallback, d.Source)
	assert.Equal(t, 1, src.draws)
	assert.Equal(t, 1, o.calls)
}

func TestOraclePolicyWithoutClient(t *testing.T) {
	a := NewAgent("A", "ISTJ", nil, &OraclePolicy{})
	_, err := a.Decide(ctx, rng.New(1), MatchContext{})
	assert.ErrorIs(t, err, ErrOracleNotConfigured)
}

func TestParseReply(t *testing.T) {
	cases := []struct {
		in   string
		want engine.Action
		ok   bool
	}{
		{"ESCALATE", engine.Escalate, true},
		{"  yield \n", engine.Yield, true},
		{"Action: YIELD", engine.Yield, true},
		{"I choose to escalate.", engine.Escalate, true},
		{"ESCALATED", 0, false},
		{"", 0, false},
		{"swerve", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseReply(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestBuildPromptDefaults(t *testing.T) {
	p := BuildPrompt("ENFJ", "", "")
	assert.Contains(t, p, "MBTI type ENFJ")
	assert.Equal(t, 2, strings.Count(p, "UNKNOWN"))
	assert.True(t, strings.HasSuffix(p, "ESCALATE or YIELD."))
}

func TestBuildRoster(t *testing.T) {
	agents, err := BuildRoster(map[engine.Code]Profile{"INTJ": {"risk": 0.8}}, RosterOptions{})
	require.NoError(t, err)
	require.Len(t, agents, 16)
	assert.Equal(t, "Agent_INTJ", agents[0].Name)
	assert.Equal(t, 0.8, agents[0].Profile.Risk())
	assert.Equal(t, 0.5, agents[1].Profile.Risk())
	assert.False(t, agents[0].UseOracle)

	_, err = BuildRoster(nil, RosterOptions{UseOracle: true})
	assert.ErrorIs(t, err, ErrOracleNotConfigured)

	agents, err = BuildRoster(nil, RosterOptions{UseOracle: true, Oracle: &stubOracle{}, Model: "gpt-4o-mini", Temperature: 0.7})
	require.NoError(t, err)
	assert.True(t, agents[15].UseOracle)
	assert.Equal(t, 0.7, agents[15].Temperature)
}
