package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mbti-chicken/server/bracket"
	"mbti-chicken/server/config"
	"mbti-chicken/server/stats"
	"mbti-chicken/server/store"
)

func summarizeCmd() *cobra.Command {
	var (
		csvPath string
		fromDB  bool
		runID   string
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print win counts by personality and trait",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var recs []bracket.Record
			if fromDB {
				r, closeFn, err := openReader(ctx, cfg)
				if err != nil {
					return err
				}
				defer closeFn()
				if recs, err = readRun(ctx, r, runID); err != nil {
					return err
				}
			} else {
				if csvPath == "" {
					csvPath = cfg.OutCSV
				}
				if recs, err = store.ReadCSV(csvPath); err != nil {
					return err
				}
			}
			return stats.Summarize(recs).Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "results CSV (default from config)")
	cmd.Flags().BoolVar(&fromDB, "db", false, "read from DATABASE_URL or SQLITE_PATH instead of the CSV")
	cmd.Flags().StringVar(&runID, "run", "", "run id (default: latest)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			db, err := store.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())
			if err := store.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Println("migrated")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r, closeFn, err := openReader(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			port := getenv("PORT", "8080")
			srv := &http.Server{Addr: ":" + port, Handler: Router(r), ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second}
			log.Printf("listening on http://localhost:%s (Ctrl+C to stop)", port)
			return srv.ListenAndServe()
		},
	}
}

// openReader prefers Postgres and falls back to the SQLite file.
func openReader(ctx context.Context, cfg config.Tournament) (store.Reader, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx, db); err != nil {
				db.Close(ctx)
				return nil, nil, err
			}
		}
		return db, func() { db.Close(context.Background()) }, nil
	}
	if cfg.SQLitePath != "" {
		l, err := store.OpenLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { l.Close() }, nil
	}
	return nil, nil, errors.New("no database configured: set DATABASE_URL or SQLITE_PATH")
}

func readRun(ctx context.Context, r store.Reader, runID string) ([]bracket.Record, error) {
	if runID == "" {
		latest, err := r.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		runID = latest.ID
	}
	recs, err := r.Matches(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return recs, nil
}
