package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"mbti-chicken/server/bracket"
)

// CSVSink writes the match log of a run to Path, replacing any previous file.
type CSVSink struct {
	Path string
}

func (c CSVSink) SaveRun(_ context.Context, _ RunInfo, recs []bracket.Record) error {
	if dir := filepath.Dir(c.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes a header row and one row per record.
func WriteCSV(w io.Writer, recs []bracket.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bracket.Columns); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a results file written by WriteCSV.
func ReadCSV(path string) ([]bracket.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCSV(f)
}

func DecodeCSV(r io.Reader) ([]bracket.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(bracket.Columns)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !slices.Equal(header, bracket.Columns) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	var out []bracket.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := ParseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}
