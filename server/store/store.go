package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mbti-chicken/server/bracket"
	"mbti-chicken/server/engine"
)

var (
	ErrNoRuns      = errors.New("no runs stored")
	ErrRunNotFound = errors.New("run not found")
)

// RunInfo is the metadata stored next to a tournament's match log.
type RunInfo struct {
	ID           string      `json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	Seed         int64       `json:"seed"`
	UseOracle    bool        `json:"use_llm"`
	Model        string      `json:"model"`
	Temperature  float64     `json:"temperature"`
	Champion     string      `json:"champion"`
	ChampionCode engine.Code `json:"champion_mbti"`
	Matches      int         `json:"matches"`
}

// Sink persists one finished tournament. Records are stored in the order given.
type Sink interface {
	SaveRun(ctx context.Context, run RunInfo, recs []bracket.Record) error
}

// Reader serves stored runs to the summary command and the HTTP API.
type Reader interface {
	Runs(ctx context.Context) ([]RunInfo, error)
	LatestRun(ctx context.Context) (RunInfo, error)
	Matches(ctx context.Context, runID string) ([]bracket.Record, error)
}

// Row renders rec in bracket.Columns order.
func Row(rec bracket.Record) []string {
	return []string{
		rec.Round,
		rec.AgentA, string(rec.CodeA), rec.ActionA.String(), strconv.Itoa(rec.PayoffA),
		rec.AgentB, string(rec.CodeB), rec.ActionB.String(), strconv.Itoa(rec.PayoffB),
		rec.Winner, string(rec.WinnerCode),
	}
}

// ParseRow is the inverse of Row.
func ParseRow(row []string) (bracket.Record, error) {
	if len(row) != len(bracket.Columns) {
		return bracket.Record{}, fmt.Errorf("expected %d columns, got %d", len(bracket.Columns), len(row))
	}
	var (
		rec bracket.Record
		err error
	)
	rec.Round = row[0]
	rec.AgentA, rec.CodeA = row[1], engine.Code(row[2])
	if rec.ActionA, err = engine.ParseAction(row[3]); err != nil {
		return rec, err
	}
	if rec.PayoffA, err = strconv.Atoi(row[4]); err != nil {
		return rec, fmt.Errorf("payoff_a: %w", err)
	}
	rec.AgentB, rec.CodeB = row[5], engine.Code(row[6])
	if rec.ActionB, err = engine.ParseAction(row[7]); err != nil {
		return rec, err
	}
	if rec.PayoffB, err = strconv.Atoi(row[8]); err != nil {
		return rec, fmt.Errorf("payoff_b: %w", err)
	}
	rec.Winner, rec.WinnerCode = row[9], engine.Code(row[10])
	return rec, nil
}

// scanner is satisfied by pgx.Row(s) and *sql.Row(s).
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (bracket.Record, error) {
	var (
		rec    bracket.Record
		aa, ab string
		err    error
	)
	if err = s.Scan(
		&rec.Round,
		&rec.AgentA, &rec.CodeA, &aa, &rec.PayoffA,
		&rec.AgentB, &rec.CodeB, &ab, &rec.PayoffB,
		&rec.Winner, &rec.WinnerCode,
	); err != nil {
		return rec, err
	}
	if rec.ActionA, err = engine.ParseAction(aa); err != nil {
		return rec, err
	}
	if rec.ActionB, err = engine.ParseAction(ab); err != nil {
		return rec, err
	}
	return rec, nil
}

func championOf(recs []bracket.Record) (string, engine.Code) {
	if len(recs) == 0 {
		return "", ""
	}
	last := recs[len(recs)-1]
	return last.Winner, last.WinnerCode
}

// Multi fans a run out to several sinks, stopping at the first error.
type Multi []Sink

func (m Multi) SaveRun(ctx context.Context, run RunInfo, recs []bracket.Record) error {
	for _, s := range m {
		if err := s.SaveRun(ctx, run, recs); err != nil {
			return err
		}
	}
	return nil
}
