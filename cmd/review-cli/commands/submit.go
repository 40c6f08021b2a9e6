package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/slidegate/review-engine/cmd/review-cli/ui"
)

var (
	submitPrompt string
	submitWait   bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit a slide deck or image for review",
	Long: `Submit a PowerPoint deck (.ppt, .pptx) or image (.jpg, .jpeg, .png) for
automated compliance review. Prints the job key used to poll status.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitPrompt, "prompt", "p", "", "custom review prompt")
	submitCmd.Flags().BoolVarP(&submitWait, "wait", "w", false, "wait for the review to finish and print the report")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ui.Init(noColor, verbose)

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	api := apiClient()

	sp := ui.NewSpinner("Uploading " + filepath.Base(path))
	sp.Start()
	resp, err := api.Upload(ctx, filepath.Base(path), data, submitPrompt)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	ui.Success("File accepted for processing")
	ui.Info("Job key: %s", resp.JobKey)

	if !submitWait {
		ui.Info("Poll with: review-cli status %s", resp.JobKey)
		return nil
	}

	return watchJob(ctx, api, resp.JobKey)
}
