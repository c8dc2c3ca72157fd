package agent

import (
	"fmt"
	"regexp"
	"strings"

	"mbti-chicken/server/engine"
)

var actionWord = regexp.MustCompile(`\b(ESCALATE|YIELD)\b`)

// BuildPrompt asks for a single action word. Empty fields read as UNKNOWN.
func BuildPrompt(code, opponent engine.Code, round string) string {
	if opponent == "" {
		opponent = "UNKNOWN"
	}
	if round == "" {
		round = "UNKNOWN"
	}
	return fmt.Sprintf(
		"You are an AI agent with MBTI type %s.\n"+
			"You are playing a one-shot Game of Chicken in round %s.\n"+
			"Your opponent's MBTI type is %s.\n\n"+
			"Choose exactly ONE action:\n"+
			"- ESCALATE\n"+
			"- YIELD\n\n"+
			"Respond with ONLY the single word: ESCALATE or YIELD.",
		code, round, opponent)
}

// ParseReply accepts "ESCALATE", "Action: yield", "I choose to ESCALATE." and
// similar. The first whole-word match wins.
func ParseReply(text string) (engine.Action, bool) {
	t := strings.ToUpper(strings.TrimSpace(text))
	if t == "" {
		return 0, false
	}
	if a, err := engine.ParseAction(t); err == nil {
		return a, true
	}
	m := actionWord.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	a, err := engine.ParseAction(m[1])
	if err != nil {
		return 0, false
	}
	return a, true
}
