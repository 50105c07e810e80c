package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codementor/internal/navigation"
	"codementor/internal/platform"
	"codementor/internal/scraper"
	"codementor/internal/scraper/fetch"
	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <url>",
	Short: "Open a browser and follow the problems you navigate to",
	Long: `Open a Chromium window at url and keep the mentor in sync while you browse.
Every time the page settles on a new problem it is scraped and reported to
the mentor session; the mentor panel is put back when the page removes it.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("headless", false, "Run the browser without a window")
	watchCmd.Flags().Duration("debounce", 0, "Settle time after a route change (defaults to navigation.debounce)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	headless, _ := cmd.Flags().GetBool("headless")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if debounce <= 0 {
		debounce = cfg.Navigation.Debounce
	}

	opts := fetch.BrowserOptionsFromConfig(cfg)
	opts.Headless = headless
	browsers := fetch.NewBrowserManager(opts, logger)
	defer browsers.Close()

	return withClient(cmd, func(ctx context.Context, c mentorClient) error {
		page, err := browsers.NewPage(ctx)
		if err != nil {
			return err
		}
		if err := page.Navigate(args[0]); err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		if err := page.WaitLoad(); err != nil {
			logger.Warn("Initial page load did not finish", map[string]interface{}{"error": err.Error()})
		}

		snapshot := navigation.ScraperFunc(func(ctx context.Context, url string) (*models.ProblemData, error) {
			select {
			case <-time.After(scraper.SettleDelay(platform.Detect(url))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			html, err := page.HTML()
			if err != nil {
				return nil, fmt.Errorf("failed to read page: %w", err)
			}
			resp, err := c.Scrape(ctx, url, html)
			if err != nil {
				return nil, err
			}
			return resp.Problem, nil
		})

		watcher := navigation.NewWatcher(
			navigation.NewRodRouteSource(page, logger),
			navigation.NewRodPanel(page, cfg.Navigation.PanelID, cfg.Navigation.PanelURL),
			snapshot,
			navigation.Options{
				Debounce: debounce,
				Sink:     func(p *models.ProblemData) { report(ctx, c, p) },
			},
			logger,
		)

		pterm.Info.Printfln("Watching %s, press Ctrl+C to stop", args[0])
		err = watcher.Run(ctx)
		if errors.Is(err, context.Canceled) {
			pterm.Info.Println("Stopped")
			return nil
		}
		return err
	})
}

// report tells the mentor session which problem is on screen
func report(ctx context.Context, c mentorClient, p *models.ProblemData) {
	if !platform.IsProblemPage(p.Platform, p.URL) {
		logger.Debug("Not a problem page, skipping", map[string]interface{}{"url": p.URL})
		return
	}

	data, err := c.Send(ctx, models.MessageProblemData, map[string]interface{}{"data": p})
	if err == nil {
		var resp *models.ProblemDataResponse
		if resp, err = decodeReply[models.ProblemDataResponse](data); err == nil {
			state := "resumed"
			if resp.Reset {
				state = "new"
			}
			pterm.Success.Printfln("%s [%s, %s] %s  hints %d/%d  time %s",
				utils.GetStringOrDefault(p.Title, p.URL), p.Platform, p.Difficulty, state,
				resp.HintsUsed, cfg.Mentor.MaxHints, utils.FormatClock(resp.ElapsedSeconds))
			return
		}
	}
	pterm.Warning.Printfln("Could not report %s: %v", p.URL, err)
}
