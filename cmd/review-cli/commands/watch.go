package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slidegate/review-engine/cmd/review-cli/ui"
	"github.com/slidegate/review-engine/pkg/client"
)

const watchPollInterval = 3 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch <job-key>",
	Short: "Watch a review job until it finishes, then print the report",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ui.Init(noColor, verbose)
	return watchJob(ctx, apiClient(), args[0])
}

// watchJob polls status until the job reaches a terminal state, then prints
// the report for completed jobs.
func watchJob(ctx context.Context, api *client.Client, jobKey string) error {
	sp := ui.NewSpinner("Waiting for review to start")
	sp.Start()
	defer sp.Stop()

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	for {
		rec, err := api.Status(ctx, jobKey)
		if err != nil && !client.IsNotFound(err) {
			sp.Stop()
			return fmt.Errorf("fetch status: %w", err)
		}

		if rec != nil {
			switch rec.Status {
			case "COMPLETED":
				sp.Stop()
				ui.Success("Review completed")
				resp, err := api.Result(ctx, jobKey)
				if err != nil {
					return fmt.Errorf("fetch result: %w", err)
				}
				printReport(resp)
				return nil
			case "ERROR":
				sp.Stop()
				ui.Error("Review failed")
				if rec.Results != "" {
					ui.Error("%s", rec.Results)
				}
				return fmt.Errorf("review job %s failed", jobKey)
			default:
				sp.UpdateMessage(fmt.Sprintf("Status: %s", rec.Status))
			}
		}

		select {
		case <-ctx.Done():
			sp.Stop()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
