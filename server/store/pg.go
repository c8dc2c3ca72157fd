package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mbti-chicken/server/bracket"
)

//go:embed schema.sql
var schema embed.FS

// DB is the Postgres sink and reader.
type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// SaveRun inserts the run row and its matches atomically.
func (db *DB) SaveRun(ctx context.Context, run RunInfo, recs []bracket.Record) error {
	if run.Champion == "" {
		run.Champion, run.ChampionCode = championOf(recs)
	}
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // safe if already committed

	if _, err := tx.Exec(ctx, `
        INSERT INTO runs(id, seed, use_llm, model, temperature, champion, champion_mbti)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, run.ID, run.Seed, run.UseOracle, run.Model, run.Temperature, run.Champion, string(run.ChampionCode)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, r := range recs {
		batch.Queue(`
            INSERT INTO matches(
                run_id, match_index, round,
                agent_a, mbti_a, action_a, payoff_a,
                agent_b, mbti_b, action_b, payoff_b,
                winner, winner_mbti
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        `, run.ID, i, r.Round,
			r.AgentA, string(r.CodeA), r.ActionA.String(), r.PayoffA,
			r.AgentB, string(r.CodeB), r.ActionB.String(), r.PayoffB,
			r.Winner, string(r.WinnerCode))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert matches: %w", err)
	}
	return tx.Commit(ctx)
}

const runColumns = `r.id, r.created_at, r.seed, r.use_llm, r.model, r.temperature, r.champion, r.champion_mbti,
       (SELECT COUNT(*) FROM matches m WHERE m.run_id = r.id)::int`

func (db *DB) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := db.Query(ctx, `SELECT `+runColumns+` FROM runs r ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunInfo
	for rows.Next() {
		ri, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

func (db *DB) LatestRun(ctx context.Context) (RunInfo, error) {
	ri, err := scanRun(db.QueryRow(ctx, `SELECT `+runColumns+` FROM runs r ORDER BY r.created_at DESC, r.id LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return RunInfo{}, ErrNoRuns
	}
	return ri, err
}

func (db *DB) Matches(ctx context.Context, runID string) ([]bracket.Record, error) {
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM runs WHERE id = $1)`, runID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRunNotFound
	}
	rows, err := db.Query(ctx, `
        SELECT round, agent_a, mbti_a, action_a, payoff_a,
               agent_b, mbti_b, action_b, payoff_b, winner, winner_mbti
          FROM matches
         WHERE run_id = $1
         ORDER BY match_index
    `, runID)
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

func scanRun(s scanner) (RunInfo, error) {
	var ri RunInfo
	err := s.Scan(&ri.ID, &ri.CreatedAt, &ri.Seed, &ri.UseOracle, &ri.Model, &ri.Temperature,
		&ri.Champion, &ri.ChampionCode, &ri.Matches)
	return ri, err
}
