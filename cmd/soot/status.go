package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Get the status of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	id := args[0]

	resp, err := http.Get(serverURL + "/api/jobs/" + id)
	if err != nil {
		return fmt.Errorf("connecting to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Job struct {
			ID          string `json:"id"`
			Repo        string `json:"repo"`
			Instruction string `json:"instruction"`
			Stage       string `json:"stage"`
			Slot        int    `json:"slot"`
			PRUrl       string `json:"pr_url"`
			PreviewURL  string `json:"preview_url"`
			ValidateURL string `json:"validation_url"`
			Error       string `json:"error"`
			CreatedAt   string `json:"created_at"`
			UpdatedAt   string `json:"updated_at"`
		} `json:"job"`
		Events []struct {
			Type string `json:"type"`
		} `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	j := out.Job
	fmt.Printf("Job:      %s\n", j.ID)
	fmt.Printf("Repo:     %s\n", j.Repo)
	fmt.Printf("Stage:    %s\n", stageIcon(j.Stage))
	if j.Slot != 0 {
		fmt.Printf("Agent:    %d\n", j.Slot)
	}
	fmt.Printf("Task:     %s\n", j.Instruction)
	fmt.Printf("Created:  %s\n", j.CreatedAt)
	fmt.Printf("Updated:  %s\n", j.UpdatedAt)
	if j.PRUrl != "" {
		fmt.Printf("PR:       %s\n", j.PRUrl)
	}
	if j.PreviewURL != "" {
		fmt.Printf("Preview:  %s\n", j.PreviewURL)
	}
	if j.ValidateURL != "" {
		fmt.Printf("Report:   %s\n", j.ValidateURL)
	}
	if j.Error != "" {
		fmt.Printf("Error:    %s\n", j.Error)
	}
	if len(out.Events) > 0 {
		fmt.Printf("Events:   ")
		for i, ev := range out.Events {
			if i > 0 {
				fmt.Print(" -> ")
			}
			fmt.Print(ev.Type)
		}
		fmt.Println()
	}

	return nil
}
