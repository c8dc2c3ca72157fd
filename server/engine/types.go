package engine

import (
	"fmt"
	"strings"
)

type Action uint8

const (
	Escalate Action = iota
	Yield
)

var actionNames = [...]string{Escalate: "ESCALATE", Yield: "YIELD"}

// Actions lists every legal move in table order.
var Actions = [...]Action{Escalate, Yield}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

func (a Action) Valid() bool { return a == Escalate || a == Yield }

// ParseAction accepts the canonical names, case-insensitive and trimmed.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ESCALATE":
		return Escalate, nil
	case "YIELD":
		return Yield, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid action %d", uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Code is a four-letter MBTI personality code.
type Code string

// Codes is the fixed roster order.
var Codes = [16]Code{
	"INTJ", "INTP", "ENTJ", "ENTP",
	"INFJ", "INFP", "ENFJ", "ENFP",
	"ISTJ", "ISFJ", "ESTJ", "ESFJ",
	"ISTP", "ISFP", "ESTP", "ESFP",
}

func (c Code) Valid() bool {
	for _, k := range Codes {
		if k == c {
			return true
		}
	}
	return false
}

// Trait axes, one per character position of a Code.
var TraitAxes = [4]string{"E_I", "S_N", "T_F", "J_P"}

// Trait returns the letter at position i (0..3), or "" for a malformed code.
func (c Code) Trait(i int) string {
	if i < 0 || i >= len(c) || len(c) != 4 {
		return ""
	}
	return string(c[i])
}
