// Package marketplace manages the catalog of AI services and the model
// agents they run on.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"agentia/backend/internal/configuration"
	"agentia/backend/internal/repository"
	"agentia/backend/pkg/models"
)

// ErrForbidden is returned when a caller does not own the requested record.
var ErrForbidden = errors.New("forbidden")

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Service manages services and agents for professional users.
type Service struct {
	repo    repository.Repository
	configs *configuration.Service
	client  *http.Client
	logger  Logger
}

// NewService creates a new marketplace Service.
func NewService(repo repository.Repository, configs *configuration.Service, logger Logger) *Service {
	return &Service{
		repo:    repo,
		configs: configs,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// CreateServiceInput carries the fields needed to publish a service.
type CreateServiceInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	AgentID     string          `json:"agent_id"`
	Model       string          `json:"model"`
	Prompt      string          `json:"prompt"`
	Inputs      json.RawMessage `json:"inputs"`
	Outputs     json.RawMessage `json:"outputs"`
}

// CreateService publishes a new service in testing status and attaches a
// default configuration so workflow execution works out of the box.
func (s *Service) CreateService(ctx context.Context, in CreateServiceInput, owner string) (*models.Service, error) {
	svc := &models.Service{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		AgentID:     in.AgentID,
		Model:       in.Model,
		Prompt:      in.Prompt,
		Inputs:      in.Inputs,
		Outputs:     in.Outputs,
		Status:      models.ServiceStatusTesting,
		Owner:       owner,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	if _, err := s.configs.CreateDefault(ctx, svc.ID, owner); err != nil {
		return nil, err
	}
	return svc, nil
}

// ListServices returns the owner's services.
func (s *Service) ListServices(ctx context.Context, owner string) ([]*models.Service, error) {
	return s.repo.ListServices(ctx, owner)
}

// GetService returns one service, enforcing ownership.
func (s *Service) GetService(ctx context.Context, id, owner string) (*models.Service, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.Owner != owner {
		return nil, ErrForbidden
	}
	return svc, nil
}

// UpdateServiceStatus moves a service through its lifecycle, enforcing
// ownership.
func (s *Service) UpdateServiceStatus(ctx context.Context, id string, status models.ServiceStatus, owner string) (*models.Service, error) {
	svc, err := s.GetService(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	svc.Status = status
	svc.UpdatedAt = time.Now()
	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("updating service: %w", err)
	}
	return svc, nil
}

// DeleteService removes a service, enforcing ownership.
func (s *Service) DeleteService(ctx context.Context, id, owner string) error {
	if _, err := s.GetService(ctx, id, owner); err != nil {
		return err
	}
	return s.repo.DeleteService(ctx, id)
}

// ExecuteDirect proxies a raw chat-completions call to the service's agent:
// the service prompt as system message, the JSON-encoded input as user
// message. No workflow, no schema constraint; the backend response is
// returned as-is.
func (s *Service) ExecuteDirect(ctx context.Context, id string, input map[string]any, owner string) (map[string]any, error) {
	svc, err := s.GetService(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	agent, err := s.repo.GetAgent(ctx, svc.AgentID)
	if err != nil {
		return nil, fmt.Errorf("agent for service %s: %w", id, err)
	}

	rawInput, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshaling input: %w", err)
	}
	payload, err := json.Marshal(map[string]any{
		"model": svc.Model,
		"messages": []map[string]string{
			{"role": "system", "content": svc.Prompt},
			{"role": "user", "content": string(rawInput)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agent.APIURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if agent.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+agent.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling agent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading agent response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, body)
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding agent response: %w", err)
	}
	return out, nil
}
