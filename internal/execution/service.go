// Package execution persists the lifecycle of service executions and drives
// the workflow engine against stored services.
package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentia/backend/internal/ai"
	"agentia/backend/internal/configuration"
	"agentia/backend/internal/repository"
	"agentia/backend/internal/workflow"
	"agentia/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// WorkflowRunner is the workflow engine capability the service drives.
type WorkflowRunner interface {
	Execute(ctx context.Context, req workflow.ExecuteRequest) (*workflow.Response, error)
}

// Service runs AI services and records each execution in the store.
type Service struct {
	services   repository.ServiceStore
	executions repository.ExecutionStore
	configs    *configuration.Service
	engine     WorkflowRunner
	gen        workflow.Generator
	recorder   *Recorder
	logger     Logger
}

// NewService creates a new execution Service.
func NewService(
	services repository.ServiceStore,
	executions repository.ExecutionStore,
	configs *configuration.Service,
	engine WorkflowRunner,
	gen workflow.Generator,
	recorder *Recorder,
	logger Logger,
) *Service {
	return &Service{
		services:   services,
		executions: executions,
		configs:    configs,
		engine:     engine,
		gen:        gen,
		recorder:   recorder,
		logger:     logger,
	}
}

// RunResult is the outcome of a direct (single-call) execution.
type RunResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Raw     string         `json:"raw,omitempty"`
}

// Run executes a service with a single AI call: configuration prompts plus
// the pretty-printed input, no multi-stage workflow. The execution record
// moves pending to completed or failed around the call.
func (s *Service) Run(ctx context.Context, serviceID string, input map[string]any) (*RunResult, error) {
	if _, err := s.services.GetService(ctx, serviceID); err != nil {
		return nil, fmt.Errorf("service %s: %w", serviceID, err)
	}
	cfg, err := s.configs.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("configuration for service %s: %w", serviceID, err)
	}

	exec, err := s.createRecord(ctx, serviceID, input)
	if err != nil {
		return nil, err
	}

	userPrompt := strings.Join([]string{cfg.UserPrompt, prettyJSON(input)}, "\n\n")
	comp, genErr := s.gen.Generate(ctx, cfg.SystemPrompt, userPrompt, nil, ai.Options{})
	if genErr != nil {
		s.finishRecord(ctx, exec, models.ExecutionStatusFailed, nil, genErr.Error())
		s.recorder.Log(ctx, exec.ID, "error", "execution failed", map[string]any{"error": genErr.Error()})
		return nil, fmt.Errorf("AI error: %v", genErr)
	}

	output := completionJSON(comp)
	s.finishRecord(ctx, exec, models.ExecutionStatusCompleted, output, "")
	s.recorder.Log(ctx, exec.ID, "info", "execution completed", nil)

	return &RunResult{Success: true, Data: comp.Structured, Raw: comp.Text}, nil
}

// RunWorkflow executes a service through the four-stage workflow engine and
// records the outcome. The workflow response is returned unchanged so the
// caller can render the step timeline, the clarifying questions, or the
// failure.
func (s *Service) RunWorkflow(ctx context.Context, serviceID string, input map[string]any, provider string) (*workflow.Response, error) {
	svc, err := s.services.GetService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", serviceID, err)
	}
	cfg, err := s.configs.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("configuration for service %s: %w", serviceID, err)
	}

	exec, err := s.createRecord(ctx, serviceID, input)
	if err != nil {
		return nil, err
	}
	s.recorder.Log(ctx, exec.ID, "info", "workflow started", map[string]any{
		"service_id": serviceID, "service_name": svc.Name,
	})

	resp, err := s.engine.Execute(ctx, workflow.ExecuteRequest{
		ServiceID:    serviceID,
		ServiceName:  svc.Name,
		Input:        input,
		SystemPrompt: cfg.SystemPrompt,
		UserPrompt:   cfg.UserPrompt,
		Provider:     provider,
	})
	if err != nil {
		s.finishRecord(ctx, exec, models.ExecutionStatusFailed, nil, err.Error())
		s.recorder.Log(ctx, exec.ID, "error", "workflow aborted", map[string]any{"error": err.Error()})
		return nil, err
	}

	switch resp.Workflow.Status {
	case workflow.StatusCompleted:
		output, _ := json.Marshal(resp.Workflow)
		s.finishRecord(ctx, exec, models.ExecutionStatusCompleted, output, "")
		s.recorder.Log(ctx, exec.ID, "info", "workflow completed", map[string]any{
			"workflow_id": resp.Workflow.ID,
		})
	case workflow.StatusWaitingForInput:
		// the clarifying message and questions belong in the audit trail too
		output, _ := json.Marshal(resp.Workflow)
		s.finishRecord(ctx, exec, models.ExecutionStatusWaitingForInput, output, "")
		s.recorder.Log(ctx, exec.ID, "info", "workflow waiting for input", map[string]any{
			"workflow_id": resp.Workflow.ID,
			"missing":     resp.Data.MissingInfo,
		})
	default:
		output, _ := json.Marshal(resp.Workflow)
		s.finishRecord(ctx, exec, models.ExecutionStatusFailed, output, resp.Error)
		s.recorder.Log(ctx, exec.ID, "error", "workflow failed", map[string]any{
			"workflow_id": resp.Workflow.ID,
			"error":       resp.Error,
		})
	}

	return resp, nil
}

func (s *Service) createRecord(ctx context.Context, serviceID string, input map[string]any) (*models.Execution, error) {
	rawInput, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshaling input: %w", err)
	}
	exec := &models.Execution{
		ID:        uuid.New().String(),
		ServiceID: serviceID,
		Status:    models.ExecutionStatusPending,
		Input:     rawInput,
		StartedAt: time.Now(),
	}
	if err := s.executions.CreateExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("creating execution record: %w", err)
	}
	return exec, nil
}

func (s *Service) finishRecord(ctx context.Context, exec *models.Execution, status models.ExecutionStatus, output json.RawMessage, errMsg string) {
	exec.Status = status
	exec.Output = output
	if errMsg != "" {
		exec.Error = &errMsg
	}
	now := time.Now()
	exec.CompletedAt = &now
	if err := s.executions.UpdateExecution(ctx, exec); err != nil {
		s.logger.Error("failed to update execution record", "execution_id", exec.ID, "error", err)
	}
}

func completionJSON(comp *ai.Completion) json.RawMessage {
	if comp.Structured != nil {
		if data, err := json.Marshal(comp.Structured); err == nil {
			return data
		}
	}
	data, _ := json.Marshal(map[string]string{"text": comp.Text})
	return data
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
