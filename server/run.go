package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mbti-chicken/server/agent"
	"mbti-chicken/server/bracket"
	"mbti-chicken/server/config"
	"mbti-chicken/server/llm"
	"mbti-chicken/server/rng"
	"mbti-chicken/server/stats"
	"mbti-chicken/server/store"
)

type runResult struct {
	Run     store.RunInfo
	Records []bracket.Record
	Summary stats.Summary
}

// newOracle builds the oracle client; a missing key is fatal.
var newOracle = func(cfg config.Tournament) (agent.Completer, error) {
	llm.LoadAPIKeyFromSecret()
	lc, err := llm.ConfigFromEnv(cfg.Model)
	if err != nil {
		return nil, err
	}
	lc.TimeoutSec = cfg.TimeoutSec
	return llm.NewClient(lc)
}

// runTournament plays one tournament from cfg and stores it in every
// configured sink. Match lines and the summary go to out.
func runTournament(ctx context.Context, cfg config.Tournament, profilesPath string, out io.Writer) (runResult, error) {
	profiles, err := config.LoadProfiles(profilesPath)
	if err != nil {
		return runResult{}, fmt.Errorf("load profiles: %w", err)
	}

	opts := agent.RosterOptions{UseOracle: cfg.UseOracle, Model: cfg.Model, Temperature: cfg.Temperature}
	if cfg.UseOracle {
		if opts.Oracle, err = newOracle(cfg); err != nil {
			return runResult{}, fmt.Errorf("oracle setup: %w", err)
		}
	}
	agents, err := agent.BuildRoster(profiles, opts)
	if err != nil {
		return runResult{}, err
	}

	rounds := cfg.Rounds
	if len(rounds) == 0 {
		if rounds, err = bracket.RoundNames(len(agents)); err != nil {
			return runResult{}, err
		}
	}

	log.Printf("tournament seed=%d agents=%d rounds=%v llm=%v", cfg.Seed, len(agents), rounds, cfg.UseOracle)
	sched := &bracket.Scheduler{Rounds: rounds}
	if out != nil {
		sched.Observer = matchPrinter(out)
	}
	champ, recs, err := sched.Run(ctx, agents, rng.New(cfg.Seed))
	if err != nil {
		return runResult{}, err
	}

	run := store.RunInfo{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Seed:         cfg.Seed,
		UseOracle:    cfg.UseOracle,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		Champion:     champ.Name,
		ChampionCode: champ.Code,
		Matches:      len(recs),
	}
	if err := saveRun(ctx, cfg, run, recs); err != nil {
		return runResult{}, err
	}

	res := runResult{Run: run, Records: recs, Summary: stats.Summarize(recs)}
	if out != nil {
		fmt.Fprintf(out, "\n%s %s (%s). Results saved to %s\n", bold("Champion:"), good(string(champ.Code)), champ.Name, cfg.OutCSV)
		if err := res.Summary.Write(out); err != nil {
			return res, err
		}
	}
	return res, nil
}

// saveRun writes the CSV (required) and then the optional database sinks.
// A database that cannot be opened is logged and skipped.
func saveRun(ctx context.Context, cfg config.Tournament, run store.RunInfo, recs []bracket.Record) error {
	sinks := store.Multi{store.CSVSink{Path: cfg.OutCSV}}

	if cfg.SQLitePath != "" {
		l, err := store.OpenLite(cfg.SQLitePath)
		if err != nil {
			log.Printf("SQLite disabled (open failed): %v", err)
		} else {
			defer l.Close()
			sinks = append(sinks, l)
		}
	}
	if cfg.DatabaseURL != "" {
		if db := openDB(ctx, cfg); db != nil {
			defer db.Close(context.Background())
			sinks = append(sinks, db)
		}
	}
	if err := sinks[0].SaveRun(ctx, run, recs); err != nil {
		return fmt.Errorf("write %s: %w", cfg.OutCSV, err)
	}
	for _, s := range sinks[1:] {
		if err := s.SaveRun(ctx, run, recs); err != nil {
			log.Printf("store run %s failed: %v", run.ID, err)
		}
	}
	return nil
}

func openDB(ctx context.Context, cfg config.Tournament) *store.DB {
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Printf("DB disabled (open failed): %v", err)
		return nil
	}
	if err := db.Ping(ctx); err != nil {
		log.Printf("DB disabled (ping failed): %v", err)
		db.Close(ctx)
		return nil
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			log.Printf("migrate failed (continuing without DB): %v", err)
			db.Close(ctx)
			return nil
		}
	}
	return db
}

func loadConfig(cmd *cobra.Command) (config.Tournament, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func runCmd() *cobra.Command {
	var (
		profiles string
		out      string
		seed     int64
		useLLM   bool
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one tournament and store the match log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("llm") {
				cfg.UseOracle = useLLM
			}
			if out != "" {
				cfg.OutCSV = out
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var w io.Writer = cmd.OutOrStdout()
			if quiet {
				w = nil
			}
			_, err = runTournament(ctx, cfg, profiles, w)
			return err
		},
	}
	cmd.Flags().StringVar(&profiles, "profiles", config.DefaultProfilesPath, "personality profiles (YAML)")
	cmd.Flags().StringVar(&out, "out", "", "results CSV (overrides config)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed (overrides config)")
	cmd.Flags().BoolVar(&useLLM, "llm", false, "ask the LLM oracle for every decision")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not print matches or the summary")
	return cmd
}
