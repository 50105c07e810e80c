package main

import (
	"context"
	"strings"

	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the mentor a question about the current problem",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().String("url", "", "Problem page to scrape and attach")
	askCmd.Flags().String("html-file", "", "Saved HTML snapshot of --url")
	askCmd.Flags().Bool("approach", false, "Ask for structured solving approaches")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	return withClient(cmd, func(ctx context.Context, c mentorClient) error {
		payload := map[string]interface{}{"query": query}
		if cmd.Flags().Changed("approach") {
			force, _ := cmd.Flags().GetBool("approach")
			payload["forceApproach"] = force
		}
		attachProblem(ctx, cmd, c, payload)

		done := spin(cmd, "Asking the mentor...")
		data, err := c.Send(ctx, models.MessageUserQuery, payload)
		if err != nil {
			done(false, "Request failed")
			return err
		}
		resp, err := decodeReply[models.UserQueryResponse](data)
		if err != nil {
			done(false, "Mentor could not answer")
			return err
		}
		done(true, "Mentor replied")

		if jsonOutput(cmd) {
			return printJSON(resp)
		}

		pterm.Println()
		pterm.Println(resp.Reply)
		if len(resp.Approaches) > 0 {
			pterm.Println()
			rows := pterm.TableData{{"Approach", "Time", "Space", "Intuition"}}
			for _, a := range resp.Approaches {
				rows = append(rows, []string{
					a.Name,
					utils.GetStringOrDefault(a.Time, "-"),
					utils.GetStringOrDefault(a.Space, "-"),
					excerpt(a.Intuition, 80),
				})
			}
			_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		}
		return nil
	})
}

// attachProblem scrapes --url and adds it to payload as problemData
func attachProblem(ctx context.Context, cmd *cobra.Command, c mentorClient, payload map[string]interface{}) {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		return
	}

	resp, err := scrapeProblem(ctx, cmd, c, url)
	if err != nil {
		pterm.Warning.Printfln("Could not scrape %s, continuing without the problem", url)
		logger.Warn("Problem scrape failed", map[string]interface{}{"url": url, "error": err.Error()})
		return
	}
	payload["problemData"] = resp.Problem
}
