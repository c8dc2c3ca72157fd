package main

import (
	"fmt"
	"io"

	"mbti-chicken/server/agent"
	"mbti-chicken/server/bracket"
	"mbti-chicken/server/engine"
)

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}

func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warn(s string) string { return c(colYellow, s) }
func bad(s string) string  { return c(colRed, s) }
func cyan(s string) string { return c(colCyan, s) }

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s %s %s\n", dim("──"), bold(title), dim("──"))
}

func actionTag(a engine.Action) string {
	if a == engine.Escalate {
		return bad(a.String())
	}
	return good(a.String())
}

func sourceTag(d agent.Decision) string {
	switch d.Source {
	case agent.SourceOracle:
		return cyan("llm")
	case agent.SourceFallback:
		return warn("fallback")
	}
	return dim("risk")
}

// matchPrinter prints one line per match and a header whenever the round changes.
func matchPrinter(w io.Writer) bracket.Observer {
	round := ""
	return func(rec bracket.Record, da, db agent.Decision) {
		if rec.Round != round {
			round = rec.Round
			section(w, "Round "+round)
		}
		fmt.Fprintf(w, "%s %s [%s] vs %s %s [%s]  %+d/%+d  %s %s\n",
			rec.CodeA, actionTag(rec.ActionA), sourceTag(da),
			rec.CodeB, actionTag(rec.ActionB), sourceTag(db),
			rec.PayoffA, rec.PayoffB,
			dim("→"), bold(string(rec.WinnerCode)))
	}
}
