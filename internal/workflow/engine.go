package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentia/backend/internal/ai"
	"agentia/backend/pkg/models"
)

// ConfigSource resolves the effective configuration for a service.
type ConfigSource interface {
	GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error)
}

// Generator is the text-generation capability the engine drives.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, outputSchema map[string]any, opts ai.Options) (*ai.Completion, error)
}

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Engine owns the workflow state machine. Each Execute call runs its stages
// strictly sequentially on a stack-local Execution value; concurrent calls
// are fully independent.
type Engine struct {
	configs ConfigSource
	gen     Generator
	logger  Logger
}

// NewEngine creates a new Engine.
func NewEngine(configs ConfigSource, gen Generator, logger Logger) *Engine {
	return &Engine{configs: configs, gen: gen, logger: logger}
}

// Execute runs the workflow for one service invocation. The returned error
// is non-nil only when the service configuration cannot be resolved; every
// step failure is converted into data on the Response instead.
func (e *Engine) Execute(ctx context.Context, req ExecuteRequest) (*Response, error) {
	cfg, err := e.configs.GetByServiceID(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("resolving configuration for service %s: %w", req.ServiceID, err)
	}

	run := &Execution{
		ID: "workflow_" + uuid.New().String(),
		Steps: []*Step{{
			ID:          "input-validation",
			Name:        "Input validation",
			Description: "Checking and collecting the required information",
			Status:      StepPending,
		}},
		Status: StatusRunning,
		Input:  req.Input,
	}

	check := CheckInput(cfg.InputSchema, req.Input)
	if err := e.runStep(run, 0, func() (string, error) {
		if !check.Complete() {
			run.Status = StatusWaitingForInput
			run.FinalResult = check.Message
			return check.Message, nil
		}
		return "**Validation passed**\n\nAll required information is present.\n\n**Next step:** planning.", nil
	}); err != nil {
		return e.fail(run, err), nil
	}

	if run.Status == StatusWaitingForInput {
		e.logger.Info("workflow waiting for input",
			"service_id", req.ServiceID, "missing", strings.Join(check.MissingFields, ","))
		return &Response{
			Success:  true,
			Workflow: run,
			Data: &Data{
				Result:            run.FinalResult,
				RequiresMoreInput: true,
				MissingInfo:       check.MissingFields,
				Questions:         check.Questions,
			},
		}, nil
	}

	// Validation passed: the remaining stages join the run. Appending late
	// keeps the step list honest on the waiting-for-input path instead of
	// truncating it after the fact.
	run.Steps = append(run.Steps,
		&Step{ID: "planning", Name: "Planning", Description: "Building the execution plan", Status: StepPending},
		&Step{ID: "processing", Name: "Processing", Description: "Running the main task", Status: StepPending},
		&Step{ID: "finalization", Name: "Finalization", Description: "Preparing the final result", Status: StepPending},
	)

	if err := e.runStep(run, 1, func() (string, error) {
		return e.planningStep(ctx, req)
	}); err != nil {
		return e.fail(run, err), nil
	}

	if err := e.runStep(run, 2, func() (string, error) {
		return e.processingStep(ctx, req)
	}); err != nil {
		return e.fail(run, err), nil
	}

	if err := e.runStep(run, 3, func() (string, error) {
		return e.finalizationStep(ctx, req, run)
	}); err != nil {
		return e.fail(run, err), nil
	}

	run.Status = StatusCompleted
	return &Response{
		Success:  true,
		Workflow: run,
		Data:     &Data{Result: run.FinalResult},
	}, nil
}

// runStep drives the shared step lifecycle: running plus start time before
// the body, completed/result or failed/error plus end time after it. The
// body error is returned so the caller aborts the remaining steps.
func (e *Engine) runStep(run *Execution, idx int, fn func() (string, error)) error {
	step := run.Steps[idx]
	run.CurrentStepIndex = idx

	start := time.Now()
	step.Status = StepRunning
	step.StartTime = &start

	result, err := fn()

	end := time.Now()
	step.EndTime = &end
	if err != nil {
		step.Status = StepFailed
		step.Error = err.Error()
		return err
	}
	step.Status = StepCompleted
	step.Result = result
	return nil
}

// fail marks the run failed. Already-completed steps keep their recorded
// results for audit and display; steps past the failure point stay pending.
func (e *Engine) fail(run *Execution, err error) *Response {
	run.Status = StatusFailed
	run.Error = err.Error()
	e.logger.Error("workflow failed", "workflow_id", run.ID, "step", run.CurrentStepIndex, "error", err)
	return &Response{Success: false, Workflow: run, Error: err.Error()}
}

func (e *Engine) planningStep(ctx context.Context, req ExecuteRequest) (string, error) {
	prompt := fmt.Sprintf(`You are an expert task planner.

TASK: Create a detailed plan to execute "%s".

CONTEXT: %s

INSTRUCTIONS:
1. Analyze the task to accomplish
2. Break it down into logical sub-steps
3. Identify the resources and methods needed
4. Produce a clear execution plan

Respond in JSON format:
{
  "plan": ["step 1", "step 2", "step 3"],
  "methodology": "execution method",
  "estimatedTime": "time estimate",
  "risks": ["potential risks"]
}`, req.ServiceName, prettyJSON(req.Input))

	comp, err := e.gen.Generate(ctx, req.SystemPrompt, prompt, planningSchema(), ai.Options{Provider: req.Provider})
	if err != nil {
		return "", fmt.Errorf("planning error: %v", err)
	}
	if !comp.IsStructured() {
		return comp.Text, nil
	}

	var b strings.Builder
	b.WriteString("**Plan created**\n\n")
	for i, s := range comp.Strings("plan") {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	fmt.Fprintf(&b, "\n**Methodology:** %s\n**Estimated time:** %s",
		comp.String("methodology"), comp.String("estimatedTime"))
	return b.String(), nil
}

func (e *Engine) processingStep(ctx context.Context, req ExecuteRequest) (string, error) {
	prompt := fmt.Sprintf(`You are now executing the task "%s".

EXECUTE the task using the provided inputs and the established plan.

INPUTS: %s

INSTRUCTIONS:
1. Apply the defined methodology
2. Process the data according to the specifications
3. Ensure the quality of the result
4. Document the execution process

Respond in JSON format:
{
  "result": "main result of the execution",
  "details": "details of the process",
  "quality": "quality assessment",
  "notes": "important notes"
}`, req.ServiceName, prettyJSON(req.Input))

	comp, err := e.gen.Generate(ctx, req.SystemPrompt, prompt, processingSchema(), ai.Options{Provider: req.Provider})
	if err != nil {
		return "", fmt.Errorf("processing error: %v", err)
	}
	if !comp.IsStructured() {
		return comp.Text, nil
	}

	return fmt.Sprintf("**Processing complete**\n\n**Result:** %s\n\n**Details:** %s\n**Quality:** %s",
		comp.String("result"), comp.String("details"), comp.String("quality")), nil
}

func (e *Engine) finalizationStep(ctx context.Context, req ExecuteRequest, run *Execution) (string, error) {
	prompt := fmt.Sprintf(`You are finalizing the task "%s".

FINALIZE the result by formatting it in a professional, usable way.

RAW RESULT: %s

INSTRUCTIONS:
1. Format the final result
2. Add explanations where needed
3. Check consistency
4. Prepare for delivery

Respond in JSON format:
{
  "finalResult": "formatted final result",
  "summary": "execution summary",
  "recommendations": ["recommendations"],
  "nextSteps": "suggested next steps"
}`, req.ServiceName, run.Steps[2].Result)

	comp, err := e.gen.Generate(ctx, req.SystemPrompt, prompt, finalizationSchema(), ai.Options{Provider: req.Provider})
	if err != nil {
		return "", fmt.Errorf("finalization error: %v", err)
	}
	if !comp.IsStructured() {
		run.FinalResult = comp.Text
		return comp.Text, nil
	}

	// The workflow-level final result is overwritten, not appended.
	run.FinalResult = comp.String("finalResult")

	return fmt.Sprintf("**Finalization complete**\n\n**Final result:** %s\n\n**Summary:** %s",
		comp.String("finalResult"), comp.String("summary")), nil
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
