package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slidegate/review-engine/cmd/review-cli/ui"
	"github.com/slidegate/review-engine/pkg/client"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-key>",
	Short: "Show the processing status of a review job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ui.Init(noColor, verbose)

	rec, err := apiClient().Status(ctx, args[0])
	if client.IsNotFound(err) {
		ui.Warning("No status found for job %s", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}

	ui.Info("Job:          %s", rec.JobKey)
	ui.Info("Status:       %s", rec.Status)
	ui.Info("Last updated: %s", rec.LastUpdated)
	if verbose && rec.Results != "" {
		ui.Newline()
		ui.Verbose("%s", rec.Results)
	}
	return nil
}
