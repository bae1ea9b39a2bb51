// Package cli provides the command-line interface for logoforge.
package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/logoforge/internal/client"
	"github.com/raphaelgruber/logoforge/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string
	noTUI     bool

	// Global config and API client
	cfg       config.Config
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "logoforge",
	Short: "Logo generation and refinement workbench",
	Long: `Logoforge turns a company brief into creative directions, generates logo
candidates in parallel batches, and tracks every branch, refinement and
improvement as a derivation tree.

All commands talk to a running logoforge-server.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		url := serverURL
		if url == "" {
			url = cfg.ServerURL
		}
		apiClient = client.New(url)
		if verbose {
			fmt.Fprintf(os.Stderr, "server: %s\n", url)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default $LOGOFORGE_SERVER_URL)")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "print job progress as plain lines")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(directionsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(improveCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(ancestorsCmd)
	rootCmd.AddCommand(descendantsCmd)
	rootCmd.AddCommand(logoCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(statsCmd)
}

// shortID trims ids for table output.
func shortID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
