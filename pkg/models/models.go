// Package models defines the domain models for the Agentia marketplace backend.
package models

import (
	"encoding/json"
	"time"
)

// AgentStatus represents the operational status of a model agent.
type AgentStatus string

const (
	AgentStatusOnline  AgentStatus = "online"
	AgentStatusOffline AgentStatus = "offline"
)

// ServiceStatus represents the lifecycle status of a marketplace service.
type ServiceStatus string

const (
	ServiceStatusTesting  ServiceStatus = "testing"
	ServiceStatusActive   ServiceStatus = "active"
	ServiceStatusInactive ServiceStatus = "inactive"
)

// ExecutionStatus represents the persisted state of a service execution.
type ExecutionStatus string

const (
	ExecutionStatusPending         ExecutionStatus = "pending"
	ExecutionStatusCompleted       ExecutionStatus = "completed"
	ExecutionStatusFailed          ExecutionStatus = "failed"
	ExecutionStatusWaitingForInput ExecutionStatus = "waiting_for_input"
)

// Agent represents an AI backend registered by a professional user. The
// API key is never serialized to JSON responses.
type Agent struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description,omitempty" db:"description"`
	Type        string      `json:"type" db:"type"`
	Model       string      `json:"model" db:"model"`
	APIURL      string      `json:"api_url" db:"api_url"`
	APIKey      string      `json:"-" db:"api_key"`
	Status      AgentStatus `json:"status" db:"status"`
	Owner       string      `json:"owner" db:"owner"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Service represents a published AI service: a prompt bound to an agent/model.
type Service struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Category    string          `json:"category,omitempty" db:"category"`
	AgentID     string          `json:"agent_id" db:"agent_id"`
	Model       string          `json:"model" db:"model"`
	Prompt      string          `json:"prompt" db:"prompt"`
	Inputs      json.RawMessage `json:"inputs,omitempty" db:"inputs"`   // JSONB
	Outputs     json.RawMessage `json:"outputs,omitempty" db:"outputs"` // JSONB
	Status      ServiceStatus   `json:"status" db:"status"`
	Owner       string          `json:"owner" db:"owner"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ConfigMetadata carries versioning and audit information for a configuration.
type ConfigMetadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// ServiceConfiguration parameterizes workflow execution for a service:
// input/output JSON Schemas, prompt templates and auxiliary metadata.
// Schemas are kept as opaque maps so arbitrary JSON Schema keywords survive
// a round-trip through the store.
type ServiceConfiguration struct {
	ID              string          `json:"id" db:"id"`
	ServiceID       string          `json:"service_id" db:"service_id"`
	InputSchema     map[string]any  `json:"inputSchema" db:"input_schema"`
	OutputSchema    map[string]any  `json:"outputSchema" db:"output_schema"`
	Constraints     json.RawMessage `json:"constraints,omitempty" db:"constraints"`
	Requirements    json.RawMessage `json:"requirements,omitempty" db:"requirements"`
	SystemPrompt    string          `json:"systemPrompt" db:"system_prompt"`
	UserPrompt      string          `json:"userPrompt" db:"user_prompt"`
	UIConfig        json.RawMessage `json:"uiConfig,omitempty" db:"ui_config"`
	ValidationRules json.RawMessage `json:"validationRules,omitempty" db:"validation_rules"`
	FallbackConfig  json.RawMessage `json:"fallbackConfig,omitempty" db:"fallback_config"`
	Metadata        *ConfigMetadata `json:"metadata,omitempty" db:"metadata"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ServiceConfigVersion is an immutable snapshot of a service configuration.
// A new snapshot with an auto-incremented version number is written after
// every configuration update.
type ServiceConfigVersion struct {
	ID          string          `json:"id" db:"id"`
	ServiceID   string          `json:"service_id" db:"service_id"`
	Version     int             `json:"version" db:"version"`
	Config      json.RawMessage `json:"config" db:"config"` // JSONB
	Notes       string          `json:"notes,omitempty" db:"notes"`
	PublishedBy string          `json:"publishedBy,omitempty" db:"published_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// Execution represents a persisted service execution record.
type Execution struct {
	ID          string          `json:"id" db:"id"`
	ServiceID   string          `json:"service_id" db:"service_id"`
	Status      ExecutionStatus `json:"status" db:"status"`
	Input       json.RawMessage `json:"input,omitempty" db:"input"`   // JSONB
	Output      json.RawMessage `json:"output,omitempty" db:"output"` // JSONB
	Error       *string         `json:"error,omitempty" db:"error"`
	StartedAt   time.Time       `json:"started_at" db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// LogEntry is a structured log line attached to an execution.
type LogEntry struct {
	ID          string          `json:"id" db:"id"`
	ExecutionID string          `json:"execution_id" db:"execution_id"`
	Level       string          `json:"level" db:"level"`
	Message     string          `json:"message" db:"message"`
	Metadata    json.RawMessage `json:"metadata,omitempty" db:"metadata"` // JSONB
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// HealthStatus represents service health.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
