package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbti-chicken/server/agent"
	"mbti-chicken/server/bracket"
	"mbti-chicken/server/rng"
)

func playRun(t *testing.T, seed int64) []bracket.Record {
	t.Helper()
	agents, err := agent.BuildRoster(nil, agent.RosterOptions{})
	require.NoError(t, err)
	rounds, _ := bracket.RoundNames(len(agents))
	_, recs, err := bracket.Run(context.Background(), agents, rounds, rng.New(seed))
	require.NoError(t, err)
	return recs
}

func TestCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t,
		"round,agent_a,mbti_a,action_a,payoff_a,agent_b,mbti_b,action_b,payoff_b,winner,winner_mbti\n",
		buf.String())
}

func TestCSVSinkRoundTrip(t *testing.T) {
	recs := playRun(t, 42)
	path := filepath.Join(t.TempDir(), "data", "results.csv")
	require.NoError(t, CSVSink{Path: path}.SaveRun(context.Background(), RunInfo{}, recs))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 16)
	assert.True(t, strings.HasPrefix(lines[1], "R16,Agent_"))

	back, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, recs, back)
}

func TestDecodeCSVRejectsBadInput(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("a,b,c,d,e,f,g,h,i,j,k\n"))
	assert.Error(t, err)

	bad := strings.Join(bracket.Columns, ",") + "\nF,A,INTJ,SWERVE,0,B,ENFP,YIELD,0,A,INTJ\n"
	_, err = DecodeCSV(strings.NewReader(bad))
	assert.ErrorContains(t, err, "line 2")

	recs, err := DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLiteSaveAndRead(t *testing.T) {
	ctx := context.Background()
	l, err := OpenLite(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer l.Close()

	_, err = l.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)

	first := playRun(t, 1)
	second := playRun(t, 2)
	id1, id2 := uuid.NewString(), uuid.NewString()
	require.NoError(t, l.SaveRun(ctx, RunInfo{ID: id1, Seed: 1, CreatedAt: time.Unix(100, 0)}, first))
	require.NoError(t, l.SaveRun(ctx, RunInfo{ID: id2, Seed: 2, CreatedAt: time.Unix(200, 0), UseOracle: true, Model: "gpt-4o-mini", Temperature: 0.7}, second))

	runs, err := l.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	latest, err := l.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, id2, latest.ID)
	assert.Equal(t, 15, latest.Matches)
	assert.True(t, latest.UseOracle)
	assert.Equal(t, second[14].Winner, latest.Champion)
	assert.Equal(t, second[14].WinnerCode, latest.ChampionCode)

	got, err := l.Matches(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	_, err = l.Matches(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMultiSink(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenLite(filepath.Join(dir, "r.db"))
	require.NoError(t, err)
	defer l.Close()
	recs := playRun(t, 3)
	m := Multi{CSVSink{Path: filepath.Join(dir, "r.csv")}, l}
	require.NoError(t, m.SaveRun(context.Background(), RunInfo{ID: "run-3", Seed: 3}, recs))
	_, err = os.Stat(filepath.Join(dir, "r.csv"))
	assert.NoError(t, err)
	got, err := l.Matches(context.Background(), "run-3")
	require.NoError(t, err)
	assert.Len(t, got, 15)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Open(dsn)
	require.NoError(t, err)
	defer db.Close(ctx)
	require.NoError(t, Migrate(ctx, db))

	recs := playRun(t, 9)
	id := uuid.NewString()
	require.NoError(t, db.SaveRun(ctx, RunInfo{ID: id, Seed: 9}, recs))
	got, err := db.Matches(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
	latest, err := db.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, latest.ID)
}
