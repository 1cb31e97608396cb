// Package configuration resolves and maintains per-service execution
// configuration: prompt templates, input/output JSON Schemas and auxiliary
// metadata.
package configuration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"agentia/backend/internal/repository"
	"agentia/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Service provides access to service configurations.
type Service struct {
	store  repository.ConfigurationStore
	logger Logger
}

// NewService creates a new configuration Service.
func NewService(store repository.ConfigurationStore, logger Logger) *Service {
	return &Service{store: store, logger: logger}
}

// AIRequest is the effective execution parameterization for one service
// call: the stored configuration wrapped around the raw input. It is a pure
// shape transform; neither side is mutated.
type AIRequest struct {
	System          string          `json:"system"`
	User            string          `json:"user"`
	Input           map[string]any  `json:"input"`
	Meta            *models.ConfigMetadata `json:"meta,omitempty"`
	Constraints     json.RawMessage `json:"constraints,omitempty"`
	Requirements    json.RawMessage `json:"requirements,omitempty"`
	UIConfig        json.RawMessage `json:"uiConfig,omitempty"`
	ValidationRules json.RawMessage `json:"validationRules,omitempty"`
	FallbackConfig  json.RawMessage `json:"fallbackConfig,omitempty"`
}

// GetByServiceID returns the configuration for a service, or
// repository.ErrNotFound when none exists.
func (s *Service) GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error) {
	return s.store.GetConfigurationByServiceID(ctx, serviceID)
}

// BuildAIRequest wraps the stored configuration around the given raw input.
func (s *Service) BuildAIRequest(ctx context.Context, serviceID string, rawInput map[string]any) (*AIRequest, error) {
	cfg, err := s.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return &AIRequest{
		System:          cfg.SystemPrompt,
		User:            cfg.UserPrompt,
		Input:           rawInput,
		Meta:            cfg.Metadata,
		Constraints:     cfg.Constraints,
		Requirements:    cfg.Requirements,
		UIConfig:        cfg.UIConfig,
		ValidationRules: cfg.ValidationRules,
		FallbackConfig:  cfg.FallbackConfig,
	}, nil
}

// CreateDefault creates an empty default configuration for a new service.
func (s *Service) CreateDefault(ctx context.Context, serviceID, createdBy string) (*models.ServiceConfiguration, error) {
	now := time.Now()
	cfg := &models.ServiceConfiguration{
		ID:           uuid.New().String(),
		ServiceID:    serviceID,
		InputSchema:  map[string]any{"type": "object", "properties": map[string]any{}},
		OutputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Constraints:  json.RawMessage(`{}`),
		Requirements: json.RawMessage(`[]`),
		Metadata: &models.ConfigMetadata{
			Version:   "1.0.0",
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: createdBy,
		},
	}
	if err := s.store.CreateConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("creating default configuration: %w", err)
	}
	return cfg, nil
}

// UpdateRequest carries the updatable parts of a configuration. Nil fields
// are left untouched.
type UpdateRequest struct {
	InputSchema     map[string]any  `json:"inputSchema,omitempty"`
	OutputSchema    map[string]any  `json:"outputSchema,omitempty"`
	Constraints     json.RawMessage `json:"constraints,omitempty"`
	Requirements    json.RawMessage `json:"requirements,omitempty"`
	SystemPrompt    *string         `json:"systemPrompt,omitempty"`
	UserPrompt      *string         `json:"userPrompt,omitempty"`
	UIConfig        json.RawMessage `json:"uiConfig,omitempty"`
	ValidationRules json.RawMessage `json:"validationRules,omitempty"`
	FallbackConfig  json.RawMessage `json:"fallbackConfig,omitempty"`
}

// Update applies the given changes to a service's configuration, bumps the
// metadata update timestamp and appends a snapshot to the version history.
func (s *Service) Update(ctx context.Context, serviceID string, upd UpdateRequest) (*models.ServiceConfiguration, error) {
	cfg, err := s.GetByServiceID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	if upd.InputSchema != nil {
		cfg.InputSchema = upd.InputSchema
	}
	if upd.OutputSchema != nil {
		cfg.OutputSchema = upd.OutputSchema
	}
	if upd.Constraints != nil {
		cfg.Constraints = upd.Constraints
	}
	if upd.Requirements != nil {
		cfg.Requirements = upd.Requirements
	}
	if upd.SystemPrompt != nil {
		cfg.SystemPrompt = *upd.SystemPrompt
	}
	if upd.UserPrompt != nil {
		cfg.UserPrompt = *upd.UserPrompt
	}
	if upd.UIConfig != nil {
		cfg.UIConfig = upd.UIConfig
	}
	if upd.ValidationRules != nil {
		cfg.ValidationRules = upd.ValidationRules
	}
	if upd.FallbackConfig != nil {
		cfg.FallbackConfig = upd.FallbackConfig
	}
	if cfg.Metadata == nil {
		cfg.Metadata = &models.ConfigMetadata{Version: "1.0.0", CreatedAt: time.Now()}
	}
	cfg.Metadata.UpdatedAt = time.Now()

	if err := s.store.UpdateConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("updating configuration: %w", err)
	}
	if err := s.snapshot(ctx, cfg, ""); err != nil {
		return nil, fmt.Errorf("versioning configuration: %w", err)
	}
	return cfg, nil
}

// snapshot appends an immutable copy of the configuration to the version
// history. Versions auto-increment per service, starting at 1.
func (s *Service) snapshot(ctx context.Context, cfg *models.ServiceConfiguration, notes string) error {
	last, err := s.store.LatestConfigVersion(ctx, cfg.ServiceID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling configuration: %w", err)
	}
	version := &models.ServiceConfigVersion{
		ID:        uuid.New().String(),
		ServiceID: cfg.ServiceID,
		Version:   last + 1,
		Config:    raw,
		Notes:     notes,
		CreatedAt: time.Now(),
	}
	if cfg.Metadata != nil {
		version.PublishedBy = cfg.Metadata.CreatedBy
	}
	s.logger.Debug("configuration snapshot created",
		"service_id", cfg.ServiceID, "version", version.Version)
	return s.store.CreateConfigVersion(ctx, version)
}

// ValidateInput runs strict JSON Schema validation of the input against the
// service's input schema. This is a separate capability from the shallow
// required-field check the workflow engine performs; it is exposed on its
// own endpoint and is not invoked on the main execution path.
func (s *Service) ValidateInput(ctx context.Context, serviceID string, input map[string]any) error {
	cfg, err := s.GetByServiceID(ctx, serviceID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(cfg.InputSchema)
	if err != nil {
		return fmt.Errorf("marshaling input schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("inputSchema.json", strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("loading input schema: %w", err)
	}
	schema, err := compiler.Compile("inputSchema.json")
	if err != nil {
		return fmt.Errorf("compiling input schema: %w", err)
	}

	if err := schema.Validate(input); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}
	return nil
}
