package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slidegate/review-engine/cmd/review-cli/ui"
	"github.com/slidegate/review-engine/pkg/client"
)

// Stable display order for review categories.
var categoryOrder = []string{
	"personal_info",
	"content_compliance",
	"reference_standard",
	"quality_standard",
}

var resultCmd = &cobra.Command{
	Use:   "result <job-key>",
	Short: "Show the finished review report for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runResult,
}

func init() {
	rootCmd.AddCommand(resultCmd)
}

func runResult(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ui.Init(noColor, verbose)

	resp, err := apiClient().Result(ctx, args[0])
	if client.IsNotFound(err) {
		ui.Warning("No review result found for job %s (still processing?)", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}

	printReport(resp)
	return nil
}

func printReport(resp *client.ResultResponse) {
	ui.Section("Review Report")
	ui.Info("Job:     %s", resp.JobKey)
	if resp.Status != "" {
		ui.Info("Status:  %s", resp.Status)
	}

	report := resp.Report
	if report == nil {
		ui.Warning("Report payload is empty")
		return
	}

	ui.Info("Overall: %s", ui.PassFail(report.Overall.Status))
	ui.Info("Summary: %s", report.Overall.Summary)

	ui.Section("Categories")
	for _, key := range categoryOrder {
		cat, ok := report.DetailedReview[key]
		if !ok {
			continue
		}
		fmt.Printf("%-20s %s\n", key, ui.PassFail(cat.Status))
		for _, issue := range cat.Issues {
			fmt.Printf("    - %s\n", issue)
		}
		if verbose {
			for name, check := range cat.Details {
				fmt.Printf("    %-18s %s  %s\n", name, check.Status, check.Details)
			}
		}
	}

	if len(report.KeyFindings) > 0 {
		ui.Section("Key Findings")
		for _, f := range report.KeyFindings {
			fmt.Printf("  - %s\n", f)
		}
	}

	if len(report.Recommendations) > 0 {
		ui.Section("Recommendations")
		for _, r := range report.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
}
