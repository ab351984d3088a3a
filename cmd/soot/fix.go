package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	fixRepo       string
	fixBackground bool
	fixSmokeTest  bool
)

var fixCmd = &cobra.Command{
	Use:   "fix [instruction]",
	Short: "Run a fix job",
	Long:  "Run a fix job: the agent works in a sandbox and the result comes back as a PR.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().StringVar(&fixRepo, "repo", "", "target repository (owner/repo); server default when omitted")
	fixCmd.Flags().BoolVar(&fixBackground, "background", false, "return immediately and track the job by ID")
	fixCmd.Flags().BoolVar(&fixSmokeTest, "smoke-test", false, "wait for a preview deploy and smoke-check it")
	rootCmd.AddCommand(fixCmd)
}

type jobResponse struct {
	Job struct {
		ID    string `json:"id"`
		Stage string `json:"stage"`
		Error string `json:"error"`
	} `json:"job"`
	Result *struct {
		PRUrl       string `json:"pr_url"`
		PreviewURL  string `json:"preview_url"`
		ValidateURL string `json:"validation_url"`
		Warning     string `json:"warning"`
	} `json:"result"`
	Error string `json:"error"`
}

func runFix(cmd *cobra.Command, args []string) error {
	path := "/api/fix/default"
	payload := map[string]any{
		"instruction": args[0],
		"background":  fixBackground,
		"smoke_test":  fixSmokeTest,
	}
	if fixRepo != "" {
		path = "/api/fix"
		payload["repo"] = fixRepo
	}

	var out jobResponse
	status, err := postJSON(path, payload, &out)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusAccepted:
		fmt.Printf("Job %s started. Check progress with: soot status %s\n", out.Job.ID, out.Job.ID)
		return nil
	case http.StatusOK:
		fmt.Printf("Job %s: %s\n", out.Job.ID, stageIcon(out.Job.Stage))
		if out.Result != nil {
			fmt.Printf("PR:       %s\n", out.Result.PRUrl)
			if out.Result.PreviewURL != "" {
				fmt.Printf("Preview:  %s\n", out.Result.PreviewURL)
			}
			if out.Result.ValidateURL != "" {
				fmt.Printf("Report:   %s\n", out.Result.ValidateURL)
			}
			if out.Result.Warning != "" {
				fmt.Printf("Warning:  %s\n", out.Result.Warning)
			}
		}
		return nil
	default:
		if out.Error != "" {
			return fmt.Errorf("job failed: %s", out.Error)
		}
		return fmt.Errorf("server error (%d)", status)
	}
}

// postJSON posts a payload and decodes the response body into out when the
// server sent JSON. Returns the HTTP status.
func postJSON(path string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	resp, err := http.Post(serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("connecting to server: %w\nIs the server running? Start it with: soot serve", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("server error (%d): %s", resp.StatusCode, string(data))
	}
	return resp.StatusCode, nil
}
