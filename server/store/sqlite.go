package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mbti-chicken/server/bracket"
)

const liteSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    created_at    INTEGER NOT NULL,
    seed          INTEGER NOT NULL,
    use_llm       BOOLEAN NOT NULL DEFAULT 0,
    model         TEXT NOT NULL DEFAULT '',
    temperature   REAL NOT NULL DEFAULT 0,
    champion      TEXT NOT NULL,
    champion_mbti TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS matches (
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    match_index INTEGER NOT NULL,
    round       TEXT NOT NULL,
    agent_a     TEXT NOT NULL,
    mbti_a      TEXT NOT NULL,
    action_a    TEXT NOT NULL,
    payoff_a    INTEGER NOT NULL,
    agent_b     TEXT NOT NULL,
    mbti_b      TEXT NOT NULL,
    action_b    TEXT NOT NULL,
    payoff_b    INTEGER NOT NULL,
    winner      TEXT NOT NULL,
    winner_mbti TEXT NOT NULL,
    PRIMARY KEY (run_id, match_index)
);`

// Lite is a single-file SQLite sink and reader for local runs.
type Lite struct {
	db *sql.DB
}

func OpenLite(path string) (*Lite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(liteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Lite{db: db}, nil
}

func (l *Lite) Close() error { return l.db.Close() }

func (l *Lite) SaveRun(ctx context.Context, run RunInfo, recs []bracket.Record) error {
	if run.Champion == "" {
		run.Champion, run.ChampionCode = championOf(recs)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, created_at, seed, use_llm, model, temperature, champion, champion_mbti) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Seed, run.UseOracle, run.Model, run.Temperature, run.Champion, string(run.ChampionCode)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO matches(run_id, match_index, round,
            agent_a, mbti_a, action_a, payoff_a,
            agent_b, mbti_b, action_b, payoff_b,
            winner, winner_mbti)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range recs {
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.Round,
			r.AgentA, string(r.CodeA), r.ActionA.String(), r.PayoffA,
			r.AgentB, string(r.CodeB), r.ActionB.String(), r.PayoffB,
			r.Winner, string(r.WinnerCode)); err != nil {
			return fmt.Errorf("insert match %d: %w", i, err)
		}
	}
	return tx.Commit()
}

const liteRunColumns = `r.id, r.created_at, r.seed, r.use_llm, r.model, r.temperature, r.champion, r.champion_mbti,
       (SELECT COUNT(*) FROM matches m WHERE m.run_id = r.id)`

func (l *Lite) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+liteRunColumns+` FROM runs r ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunInfo
	for rows.Next() {
		ri, err := scanLiteRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

func (l *Lite) LatestRun(ctx context.Context) (RunInfo, error) {
	ri, err := scanLiteRun(l.db.QueryRowContext(ctx, `SELECT `+liteRunColumns+` FROM runs r ORDER BY r.created_at DESC, r.id LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, ErrNoRuns
	}
	return ri, err
}

func (l *Lite) Matches(ctx context.Context, runID string) ([]bracket.Record, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrRunNotFound
	}
	rows, err := l.db.QueryContext(ctx, `
        SELECT round, agent_a, mbti_a, action_a, payoff_a,
               agent_b, mbti_b, action_b, payoff_b, winner, winner_mbti
          FROM matches WHERE run_id = ? ORDER BY match_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []bracket.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanLiteRun(s scanner) (RunInfo, error) {
	var (
		ri    RunInfo
		nanos int64
	)
	err := s.Scan(&ri.ID, &nanos, &ri.Seed, &ri.UseOracle, &ri.Model, &ri.Temperature,
		&ri.Champion, &ri.ChampionCode, &ri.Matches)
	ri.CreatedAt = time.Unix(0, nanos).UTC()
	return ri, err
}
