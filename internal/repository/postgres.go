package repository

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agentia/backend/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is a PostgreSQL implementation of the Repository interface.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a new Postgres repository.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Ping verifies the database connection.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// InitSchema creates the tables if they do not exist yet.
func (s *Postgres) InitSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// CreateAgent saves a new agent.
func (s *Postgres) CreateAgent(ctx context.Context, agent *models.Agent) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO agents (id, name, description, type, model, api_url, api_key, status, owner, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`,
		agent.ID, agent.Name, agent.Description, agent.Type, agent.Model,
		agent.APIURL, agent.APIKey, agent.Status, agent.Owner)
	return err
}

// GetAgent retrieves an agent by its ID.
func (s *Postgres) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	var a models.Agent
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, type, model, api_url, api_key, status, owner, created_at, updated_at
		 FROM agents WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Description, &a.Type, &a.Model, &a.APIURL,
			&a.APIKey, &a.Status, &a.Owner, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ListAgents returns all agents belonging to an owner.
func (s *Postgres) ListAgents(ctx context.Context, owner string) ([]*models.Agent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, type, model, api_url, api_key, status, owner, created_at, updated_at
		 FROM agents WHERE owner = $1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Type, &a.Model, &a.APIURL,
			&a.APIKey, &a.Status, &a.Owner, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		agents = append(agents, &a)
	}
	return agents, rows.Err()
}

// UpdateAgent updates an existing agent.
func (s *Postgres) UpdateAgent(ctx context.Context, agent *models.Agent) error {
	_, err := s.db.Exec(ctx,
		`UPDATE agents SET name = $1, description = $2, type = $3, model = $4,
		 api_url = $5, api_key = $6, status = $7, updated_at = now() WHERE id = $8`,
		agent.Name, agent.Description, agent.Type, agent.Model,
		agent.APIURL, agent.APIKey, agent.Status, agent.ID)
	return err
}

// DeleteAgent removes an agent.
func (s *Postgres) DeleteAgent(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	return err
}

// CreateService saves a new service.
func (s *Postgres) CreateService(ctx context.Context, svc *models.Service) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO services (id, name, description, category, agent_id, model, prompt, inputs, outputs, status, owner, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`,
		svc.ID, svc.Name, svc.Description, svc.Category, svc.AgentID, svc.Model,
		svc.Prompt, svc.Inputs, svc.Outputs, svc.Status, svc.Owner)
	return err
}

// GetService retrieves a service by its ID.
func (s *Postgres) GetService(ctx context.Context, id string) (*models.Service, error) {
	var sv models.Service
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, category, agent_id, model, prompt, inputs, outputs, status, owner, created_at, updated_at
		 FROM services WHERE id = $1`, id).
		Scan(&sv.ID, &sv.Name, &sv.Description, &sv.Category, &sv.AgentID, &sv.Model,
			&sv.Prompt, &sv.Inputs, &sv.Outputs, &sv.Status, &sv.Owner, &sv.CreatedAt, &sv.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &sv, nil
}

// ListServices returns all services belonging to an owner.
func (s *Postgres) ListServices(ctx context.Context, owner string) ([]*models.Service, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, category, agent_id, model, prompt, inputs, outputs, status, owner, created_at, updated_at
		 FROM services WHERE owner = $1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var sv models.Service
		if err := rows.Scan(&sv.ID, &sv.Name, &sv.Description, &sv.Category, &sv.AgentID, &sv.Model,
			&sv.Prompt, &sv.Inputs, &sv.Outputs, &sv.Status, &sv.Owner, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
			return nil, err
		}
		services = append(services, &sv)
	}
	return services, rows.Err()
}

// UpdateService updates an existing service.
func (s *Postgres) UpdateService(ctx context.Context, svc *models.Service) error {
	_, err := s.db.Exec(ctx,
		`UPDATE services SET name = $1, description = $2, category = $3, model = $4,
		 prompt = $5, inputs = $6, outputs = $7, status = $8, updated_at = now() WHERE id = $9`,
		svc.Name, svc.Description, svc.Category, svc.Model,
		svc.Prompt, svc.Inputs, svc.Outputs, svc.Status, svc.ID)
	return err
}

// DeleteService removes a service.
func (s *Postgres) DeleteService(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	return err
}

// CreateConfiguration saves a new service configuration.
func (s *Postgres) CreateConfiguration(ctx context.Context, cfg *models.ServiceConfiguration) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO service_configs (id, service_id, input_schema, output_schema, constraints, requirements,
		 system_prompt, user_prompt, ui_config, validation_rules, fallback_config, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`,
		cfg.ID, cfg.ServiceID, cfg.InputSchema, cfg.OutputSchema, cfg.Constraints, cfg.Requirements,
		cfg.SystemPrompt, cfg.UserPrompt, cfg.UIConfig, cfg.ValidationRules, cfg.FallbackConfig, cfg.Metadata)
	return err
}

// GetConfigurationByServiceID retrieves the configuration attached to a service.
func (s *Postgres) GetConfigurationByServiceID(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error) {
	var c models.ServiceConfiguration
	err := s.db.QueryRow(ctx,
		`SELECT id, service_id, input_schema, output_schema, constraints, requirements,
		 system_prompt, user_prompt, ui_config, validation_rules, fallback_config, metadata, created_at, updated_at
		 FROM service_configs WHERE service_id = $1`, serviceID).
		Scan(&c.ID, &c.ServiceID, &c.InputSchema, &c.OutputSchema, &c.Constraints, &c.Requirements,
			&c.SystemPrompt, &c.UserPrompt, &c.UIConfig, &c.ValidationRules, &c.FallbackConfig,
			&c.Metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// UpdateConfiguration updates an existing configuration.
func (s *Postgres) UpdateConfiguration(ctx context.Context, cfg *models.ServiceConfiguration) error {
	_, err := s.db.Exec(ctx,
		`UPDATE service_configs SET input_schema = $1, output_schema = $2, constraints = $3, requirements = $4,
		 system_prompt = $5, user_prompt = $6, ui_config = $7, validation_rules = $8, fallback_config = $9,
		 metadata = $10, updated_at = now() WHERE id = $11`,
		cfg.InputSchema, cfg.OutputSchema, cfg.Constraints, cfg.Requirements,
		cfg.SystemPrompt, cfg.UserPrompt, cfg.UIConfig, cfg.ValidationRules, cfg.FallbackConfig,
		cfg.Metadata, cfg.ID)
	return err
}

// CreateConfigVersion appends a configuration snapshot.
func (s *Postgres) CreateConfigVersion(ctx context.Context, v *models.ServiceConfigVersion) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO service_config_versions (id, service_id, version, config, notes, published_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		v.ID, v.ServiceID, v.Version, v.Config, v.Notes, v.PublishedBy)
	return err
}

// LatestConfigVersion returns the highest snapshot version for a service,
// or 0 when no snapshot exists yet.
func (s *Postgres) LatestConfigVersion(ctx context.Context, serviceID string) (int, error) {
	var version int
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM service_config_versions WHERE service_id = $1`,
		serviceID).Scan(&version)
	return version, err
}

// CreateExecution saves a new execution record.
func (s *Postgres) CreateExecution(ctx context.Context, exec *models.Execution) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO executions (id, service_id, status, input, output, error, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		exec.ID, exec.ServiceID, exec.Status, exec.Input, exec.Output, exec.Error,
		exec.StartedAt, exec.CompletedAt)
	return err
}

// GetExecution retrieves an execution record by its ID.
func (s *Postgres) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	var e models.Execution
	err := s.db.QueryRow(ctx,
		`SELECT id, service_id, status, input, output, error, started_at, completed_at
		 FROM executions WHERE id = $1`, id).
		Scan(&e.ID, &e.ServiceID, &e.Status, &e.Input, &e.Output, &e.Error, &e.StartedAt, &e.CompletedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// UpdateExecution updates an existing execution record.
func (s *Postgres) UpdateExecution(ctx context.Context, exec *models.Execution) error {
	_, err := s.db.Exec(ctx,
		`UPDATE executions SET status = $1, output = $2, error = $3, completed_at = $4 WHERE id = $5`,
		exec.Status, exec.Output, exec.Error, exec.CompletedAt, exec.ID)
	return err
}

// AppendLog appends a log line to an execution.
func (s *Postgres) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO execution_logs (id, execution_id, level, message, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		entry.ID, entry.ExecutionID, entry.Level, entry.Message, entry.Metadata)
	return err
}
