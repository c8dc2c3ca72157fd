package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"mbti-chicken/server/agent"
	"mbti-chicken/server/engine"
)

const (
	DefaultTournamentPath = "config/tournament.yaml"
	DefaultProfilesPath   = "config/mbti_profiles.yaml"
)

// Tournament is the run configuration. Values come from defaults, then the
// YAML file, then environment variables.
type Tournament struct {
	Seed        int64    `yaml:"seed" env:"SEED"`
	UseOracle   bool     `yaml:"use_llm" env:"USE_LLM"`
	Model       string   `yaml:"model" env:"OPENAI_MODEL"`
	Temperature float64  `yaml:"temperature" env:"OPENAI_TEMPERATURE"`
	Rounds      []string `yaml:"rounds" env:"ROUNDS" envSeparator:","`
	OutCSV      string   `yaml:"out_csv" env:"RESULTS_CSV"`
	SQLitePath  string   `yaml:"sqlite_path" env:"SQLITE_PATH"`
	TimeoutSec  int      `yaml:"oracle_timeout_seconds" env:"OPENAI_TIMEOUT_SECONDS"`

	DatabaseURL string `yaml:"-" env:"DATABASE_URL"`
	AutoMigrate bool   `yaml:"-" env:"AUTO_MIGRATE"`
}

func Defaults() Tournament {
	return Tournament{
		Seed:        42,
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		OutCSV:      "data/results.csv",
		TimeoutSec:  45,
	}
}

// Load reads path (a missing file leaves the defaults in place) and applies
// environment overrides.
func Load(path string) (Tournament, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config %s not found, using defaults", path)
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("env overrides: %w", err)
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return cfg, fmt.Errorf("temperature %v out of range [0, 2]", cfg.Temperature)
	}
	return cfg, nil
}

// LoadProfiles reads the code -> profile table. Keys are matched
// case-insensitively; unknown codes are logged and skipped.
func LoadProfiles(path string) (map[engine.Code]agent.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[engine.Code]agent.Profile, len(raw))
	for k, v := range raw {
		code := engine.Code(strings.ToUpper(strings.TrimSpace(k)))
		if !code.Valid() {
			log.Printf("profiles: skipping unknown code %q", k)
			continue
		}
		if r, ok := v["risk"]; ok {
			if f := agent.Profile(v).Risk(); f < 0 || f > 1 {
				return nil, fmt.Errorf("profiles: %s risk %v out of range [0, 1]", code, r)
			}
		}
		out[code] = agent.Profile(v)
	}
	return out, nil
}
