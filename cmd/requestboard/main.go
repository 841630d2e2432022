package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requestboard",
		Short: "Request board - create, read, update, and delete requests",
		Long: "Serves a request board page over a hosted (PostgREST/Supabase) or SQL requests " +
			"table. Settings come from a YAML file, a .env file and the environment.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(
				cmd.OutOrStdout(), "requestboard %s (commit: %s, built: %s)\n", Version, Commit, Date,
			)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	// Best effort; the environment may already carry the settings
	_ = godotenv.Load(".env")
	os.Exit(execute(newRootCmd()))
}
