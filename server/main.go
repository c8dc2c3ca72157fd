package main

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mbti-chicken/server/config"
)

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chicken",
		Short:         "Single-elimination Game of Chicken between MBTI agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", config.DefaultTournamentPath, "tournament config (YAML)")
	root.AddCommand(runCmd(), summarizeCmd(), migrateCmd(), serveCmd())
	return root
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	useColor = os.Getenv("NO_COLOR") == "" && asBool(getenv("USE_COLOR", "1"))

	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
