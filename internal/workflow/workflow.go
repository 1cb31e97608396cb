// Package workflow implements the four-stage execution engine that drives an
// AI service run: input validation, planning, processing and finalization.
package workflow

import (
	"time"
)

// StepStatus is the lifecycle state of a single workflow step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// Status is the lifecycle state of a workflow execution.
type Status string

const (
	StatusPending         Status = "pending"
	StatusRunning         Status = "running"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
	StatusWaitingForInput Status = "waiting_for_input"
)

// Step is one stage of a workflow run. Steps are mutated only by the engine
// while the run is in flight and are immutable once it terminates.
type Step struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
}

// Execution is the in-memory state of one workflow run. It is exclusively
// owned by a single Engine.Execute invocation and is never shared across
// calls; the run id is generated per invocation and is distinct from the
// persisted execution record.
type Execution struct {
	ID               string         `json:"id"`
	Steps            []*Step        `json:"steps"`
	CurrentStepIndex int            `json:"currentStepIndex"`
	Status           Status         `json:"status"`
	Input            map[string]any `json:"input"`
	FinalResult      string         `json:"finalResult,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// Data carries the caller-facing payload of a successful call. When
// RequiresMoreInput is set the call succeeded at the transport level but the
// input was incomplete; callers must inspect it, not just Success.
type Data struct {
	Result            string   `json:"result"`
	RequiresMoreInput bool     `json:"requiresMoreInput,omitempty"`
	MissingInfo       []string `json:"missingInfo,omitempty"`
	Questions         []string `json:"questions,omitempty"`
}

// Response is the terminal result of a workflow run. Step failures are
// reported here as data, never as errors.
type Response struct {
	Success  bool       `json:"success"`
	Workflow *Execution `json:"workflow"`
	Data     *Data      `json:"data,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// ExecuteRequest names the inputs of one workflow run.
type ExecuteRequest struct {
	ServiceID    string
	ServiceName  string
	Input        map[string]any
	SystemPrompt string
	UserPrompt   string
	// Provider optionally selects the AI backend; empty means the default.
	Provider string
}
