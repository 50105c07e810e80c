package main

import (
	"context"

	"codementor/internal/mentor"
	"codementor/pkg/models"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var hintCmd = &cobra.Command{
	Use:   "hint",
	Short: "Reveal the next rung of the hint ladder",
	Long: `Reveal one hint for the current problem. Hints go from a tiny push (1)
through the approach (2) and the key insight (3) to a pseudocode outline (4).
Without --level the next hidden rung is revealed.`,
	Args: cobra.NoArgs,
	RunE: runHint,
}

func init() {
	hintCmd.Flags().String("url", "", "Problem page to scrape and attach")
	hintCmd.Flags().String("html-file", "", "Saved HTML snapshot of --url")
	hintCmd.Flags().IntP("level", "l", 0, "Hint level to reveal (1-4)")
}

func runHint(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetInt("level")

	return withClient(cmd, func(ctx context.Context, c mentorClient) error {
		payload := map[string]interface{}{}
		if level > 0 {
			payload["level"] = level
		}
		attachProblem(ctx, cmd, c, payload)

		done := spin(cmd, "Preparing a hint...")
		data, err := c.Send(ctx, models.MessageHintLadder, payload)
		if err != nil {
			done(false, "Request failed")
			return err
		}
		resp, err := decodeReply[models.HintResponse](data)
		if err != nil {
			done(false, "No hint available")
			return err
		}
		done(true, "Hint ready")

		if jsonOutput(cmd) {
			return printJSON(resp)
		}

		pterm.Println()
		pterm.Println(pterm.Bold.Sprintf("Hint %d of %d", resp.Level, mentor.MaxHintLevel))
		pterm.Println(resp.Hint)
		if resp.HintsUsed >= mentor.MaxHintLevel {
			pterm.Info.Println("That was the last hint for this problem")
		}
		return nil
	})
}
