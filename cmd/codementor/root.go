package main

import (
	"context"
	"os"
	"strings"

	"codementor/internal/config"
	"codementor/internal/logging"
	"codementor/internal/logging/types"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger types.Logger
)

var rootCmd = &cobra.Command{
	Use:   "codementor",
	Short: "Coding practice mentor for LeetCode, Codeforces, HackerRank and CodeChef",
	Long: `codementor scrapes the problem you are working on and asks an LLM mentor
for guidance: free-form questions, a four level hint ladder, approach
comparisons, mistake checks and line-by-line explanations.

Commands talk to a running codementor server when --server (or
CODEMENTOR_SERVER) is set, and run the mentor in-process otherwise.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.CloseLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs/config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("server", "", "Base URL of a codementor server (defaults to $CODEMENTOR_SERVER)")
	rootCmd.PersistentFlags().String("session", "cli", "Session id used for mentor messages")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(scrapeCmd, askCmd, hintCmd, watchCmd, statusCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	loaded, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	loaded.Logging.Level = "warn"
	if verbose {
		loaded.Logging.Level = "debug"
	}
	if err := logging.InitializeLogging(loaded); err != nil {
		return err
	}

	cfg = loaded
	logger = logging.GetGlobalLogger()
	return nil
}

func serverURL(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("server")
	if strings.TrimSpace(u) == "" {
		u = os.Getenv("CODEMENTOR_SERVER")
	}
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

func sessionID(cmd *cobra.Command) string {
	id, _ := cmd.Flags().GetString("session")
	return id
}

func jsonOutput(cmd *cobra.Command) bool {
	output, _ := cmd.Flags().GetString("output")
	return output == "json"
}

// withClient runs fn against the server, or against an in-process mentor
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c mentorClient) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := newClient(serverURL(cmd), sessionID(cmd))
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	return fn(ctx, c)
}

// spin starts a spinner unless the output is machine readable
func spin(cmd *cobra.Command, text string) func(ok bool, msg string) {
	if jsonOutput(cmd) {
		return func(bool, string) {}
	}
	s, err := pterm.DefaultSpinner.Start(text)
	if err != nil {
		return func(bool, string) {}
	}
	return func(ok bool, msg string) {
		if ok {
			s.Success(msg)
			return
		}
		s.Fail(msg)
	}
}
