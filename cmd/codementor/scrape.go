package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"codementor/pkg/models"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const excerptRunes = 280

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape a problem page and print what was extracted",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().String("html-file", "", "Parse a saved HTML snapshot instead of fetching the page")
	scrapeCmd.Flags().String("engine", "", "Fetch engine for in-process runs (static, headed, firecrawl, hybrid)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	if engine, _ := cmd.Flags().GetString("engine"); engine != "" {
		cfg.Scraper.Engine = engine
	}

	return withClient(cmd, func(ctx context.Context, c mentorClient) error {
		resp, err := scrapeProblem(ctx, cmd, c, args[0])
		if err != nil {
			pterm.Error.Println("Scrape failed")
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(resp)
		}
		printProblem(resp)
		return nil
	})
}

// scrapeProblem scrapes url, from the --html-file snapshot when one is given
func scrapeProblem(ctx context.Context, cmd *cobra.Command, c mentorClient, url string) (*models.ScrapeResponse, error) {
	var html string
	if path, _ := cmd.Flags().GetString("html-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		html = string(data)
	}
	return c.Scrape(ctx, url, html)
}

func printProblem(resp *models.ScrapeResponse) {
	p := resp.Problem
	rows := pterm.TableData{
		{"Property", "Value"},
		{"Title", p.Title},
		{"Platform", string(p.Platform)},
		{"Difficulty", p.Difficulty},
		{"Problem page", fmt.Sprintf("%t", resp.IsProblemPage)},
		{"Reference solutions", fmt.Sprintf("%d", len(p.ScrapedSolutions))},
		{"Engine", resp.Engine},
		{"Took", resp.ProcessingTime.Round(time.Millisecond).String()},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	if text := strings.TrimSpace(p.ProblemText()); text != "" {
		pterm.Println()
		pterm.Println(pterm.Gray(excerpt(text, excerptRunes)))
	}
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
