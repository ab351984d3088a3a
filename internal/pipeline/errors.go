package pipeline

import "fmt"

// ProvisioningError means the sandbox could not be started. Terminal for
// the job.
type ProvisioningError struct {
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning sandbox: %v", e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// AgentExecutionError means the coding agent ran but did not finish cleanly.
// Terminal for the job.
type AgentExecutionError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *AgentExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("running agent: %v", e.Err)
	}
	return fmt.Sprintf("agent exited with code %d", e.ExitCode)
}

func (e *AgentExecutionError) Unwrap() error { return e.Err }

// IntegrationError means the agent's changes could not be turned into a
// pull request. Terminal for the job.
type IntegrationError struct {
	Err error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integrating changes: %v", e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }
