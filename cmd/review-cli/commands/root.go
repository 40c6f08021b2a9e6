// Package commands implements the review CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/slidegate/review-engine/pkg/client"
)

var (
	serverURL string
	verbose   bool
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "review-cli",
	Short: "Review Engine - CLI for slide deck and image compliance review",
	Long: `The review CLI submits slide decks and images for automated compliance
review, polls processing status, and renders finished review reports.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "API server base URL (default http://localhost:8080, or REVIEW_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// apiClient builds the SDK client from flags and environment.
func apiClient() *client.Client {
	base := serverURL
	if base == "" {
		base = os.Getenv("REVIEW_API_URL")
	}
	return client.New(client.Config{BaseURL: base})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
