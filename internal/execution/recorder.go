package execution

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"agentia/backend/internal/repository"
	"agentia/backend/pkg/models"
)

// Recorder appends structured log lines to an execution's audit trail. It is
// a fire-and-forget sink: a failed append is reported to the application
// logger and swallowed, never aborting the workflow it observes.
type Recorder struct {
	store  repository.LogStore
	logger Logger
}

// NewRecorder creates a new Recorder.
func NewRecorder(store repository.LogStore, logger Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Log appends one log line to the execution.
func (r *Recorder) Log(ctx context.Context, executionID, level, message string, metadata map[string]any) {
	var meta json.RawMessage
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			meta = data
		}
	}
	entry := &models.LogEntry{
		ID:          uuid.New().String(),
		ExecutionID: executionID,
		Level:       level,
		Message:     message,
		Metadata:    meta,
		CreatedAt:   time.Now(),
	}
	if err := r.store.AppendLog(ctx, entry); err != nil {
		r.logger.Error("failed to append execution log",
			"execution_id", executionID, "error", err)
	}
}
