package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all jobs",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(serverURL + "/api/jobs")
	if err != nil {
		return fmt.Errorf("connecting to server: %w\nIs the server running? Start it with: soot serve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Jobs []struct {
			ID          string `json:"id"`
			Repo        string `json:"repo"`
			Stage       string `json:"stage"`
			Instruction string `json:"instruction"`
			PRUrl       string `json:"pr_url"`
		} `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if len(out.Jobs) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREPO\tSTAGE\tINSTRUCTION\tPR")
	for _, j := range out.Jobs {
		instruction := j.Instruction
		if len(instruction) > 50 {
			instruction = instruction[:47] + "..."
		}
		pr := j.PRUrl
		if pr == "" {
			pr = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Repo, stageIcon(j.Stage), instruction, pr)
	}
	return w.Flush()
}

func stageIcon(stage string) string {
	switch stage {
	case "queued":
		return "⏳ queued"
	case "provisioning", "executing", "integrating", "validating":
		return "🔄 " + stage
	case "succeeded":
		return "✅ succeeded"
	case "failed":
		return "❌ failed"
	default:
		return stage
	}
}
