package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var analyzeRepo string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [question]",
	Short: "Ask a read-only question about a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRepo, "repo", "", "target repository (owner/repo); server default when omitted")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	payload := map[string]any{"question": args[0]}
	if analyzeRepo != "" {
		payload["repo"] = analyzeRepo
	}

	var out struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
		Result *struct {
			Output string `json:"output"`
		} `json:"result"`
		Error string `json:"error"`
	}
	status, err := postJSON("/api/analyze", payload, &out)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		if out.Error != "" {
			return fmt.Errorf("analysis failed: %s", out.Error)
		}
		return fmt.Errorf("server error (%d)", status)
	}

	if out.Result != nil {
		fmt.Println(out.Result.Output)
	}
	return nil
}
