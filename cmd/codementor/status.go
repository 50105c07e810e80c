package main

import (
	"context"
	"slices"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the health of the mentor and its dependencies",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var (
	healthyColor  = pterm.NewRGB(31, 163, 130)
	degradedColor = pterm.NewRGB(245, 158, 11)
)

func runStatus(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, c mentorClient) error {
		status, err := c.Status(ctx)
		if err != nil {
			pterm.Error.Println("Could not reach the codementor server")
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(status)
		}

		color := healthyColor
		if status.Status != "operational" {
			color = degradedColor
		}
		pterm.Println()
		pterm.Printf("  codementor %s: %s\n", status.Version, color.Sprint(status.Status))
		pterm.Println()

		names := lo.Keys(status.Checks)
		slices.Sort(names)

		for _, name := range names {
			value := status.Checks[name]
			dot := healthyColor
			if strings.HasPrefix(value, "error") {
				dot = degradedColor
			}
			pterm.Printf("    %s %-24s %s\n", dot.Sprint("●"), name, value)
		}
		pterm.Println()
		return nil
	})
}
