package repository

import (
	"context"
	"errors"

	"agentia/backend/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// AgentStore persists model agents.
type AgentStore interface {
	CreateAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	ListAgents(ctx context.Context, owner string) ([]*models.Agent, error)
	UpdateAgent(ctx context.Context, agent *models.Agent) error
	DeleteAgent(ctx context.Context, id string) error
}

// ServiceStore persists marketplace services.
type ServiceStore interface {
	CreateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context, owner string) ([]*models.Service, error)
	UpdateService(ctx context.Context, service *models.Service) error
	DeleteService(ctx context.Context, id string) error
}

// ConfigurationStore persists service configurations and their version
// snapshots. Snapshots are append-only; version numbers increase per service.
type ConfigurationStore interface {
	CreateConfiguration(ctx context.Context, cfg *models.ServiceConfiguration) error
	GetConfigurationByServiceID(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error)
	UpdateConfiguration(ctx context.Context, cfg *models.ServiceConfiguration) error
	CreateConfigVersion(ctx context.Context, version *models.ServiceConfigVersion) error
	LatestConfigVersion(ctx context.Context, serviceID string) (int, error)
}

// ExecutionStore persists execution records.
type ExecutionStore interface {
	CreateExecution(ctx context.Context, exec *models.Execution) error
	GetExecution(ctx context.Context, id string) (*models.Execution, error)
	UpdateExecution(ctx context.Context, exec *models.Execution) error
}

// LogStore appends structured log lines to an execution. There is no read
// path; the table is an observability sink.
type LogStore interface {
	AppendLog(ctx context.Context, entry *models.LogEntry) error
}

// Repository combines all stores backed by a single database.
type Repository interface {
	AgentStore
	ServiceStore
	ConfigurationStore
	ExecutionStore
	LogStore
	Ping(ctx context.Context) error
}
