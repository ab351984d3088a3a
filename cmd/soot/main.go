// soot - sandboxed fix jobs for your repos.
//
// Send an instruction, get a PR. Watch your agents work live.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "soot",
	Short: "soot - sandboxed fix jobs",
	Long: `soot runs coding-agent fix jobs in sandboxes and turns the results
into pull requests.

  soot serve                                    Start the server
  soot fix "fix the bug" --repo owner/repo      Run a fix job
  soot analyze "where is X?" --repo owner/repo  Ask a read-only question
  soot list                                     List jobs
  soot status <id>                              Check job status
  soot observe                                  Watch live agent activity`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SOOT_SERVER", "http://localhost:8700"), "soot server URL")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
