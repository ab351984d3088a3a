// Package model defines the core domain types shared across all soot packages.
// It has zero dependencies on other soot packages.
package model

import "time"

// Stage represents the current pipeline stage of a job. Transitions are
// monotonic for a given job; no stage is revisited.
type Stage string

const (
	StageQueued       Stage = "queued"
	StageProvisioning Stage = "provisioning"
	StageExecuting    Stage = "executing"
	StageIntegrating  Stage = "integrating"
	StageValidating   Stage = "validating"
	StageSucceeded    Stage = "succeeded"
	StageFailed       Stage = "failed"
)

// Terminal reports whether a stage is a terminal one.
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed
}

// Job represents a single fix request. It is owned by the pipeline for its
// lifetime and journaled only for the lifetime of the process.
type Job struct {
	ID          string    `json:"id"`
	Instruction string    `json:"instruction"`
	Repo        string    `json:"repo"`
	Stage       Stage     `json:"stage"`
	Slot        int       `json:"slot,omitempty"`
	PRUrl       string    `json:"pr_url,omitempty"`
	PreviewURL  string    `json:"preview_url,omitempty"`
	ValidateURL string    `json:"validation_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Result is what a completed fix job returns to its caller.
type Result struct {
	PRUrl       string `json:"pr_url"`
	PreviewURL  string `json:"preview_url,omitempty"`
	ValidateURL string `json:"validation_url,omitempty"`
	Output      string `json:"output"`
	// Warning carries a non-terminal validation problem (preview never came
	// up, smoke check failed). The job still counts as succeeded.
	Warning string `json:"warning,omitempty"`
}

// Truncate shortens a string to maxLen runes, adding "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
