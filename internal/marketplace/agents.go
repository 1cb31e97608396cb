package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"agentia/backend/pkg/models"
)

// CreateAgentInput carries the fields needed to register an agent.
type CreateAgentInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Model       string `json:"model"`
	APIKey      string `json:"api_key"`
	APIURL      string `json:"api_url"`
}

// CreateAgent registers a new AI backend for the owner. The API URL is
// normalized to scheme and host only so per-request paths cannot leak in.
func (s *Service) CreateAgent(ctx context.Context, in CreateAgentInput, owner string) (*models.Agent, error) {
	if owner == "" {
		return nil, fmt.Errorf("missing owner while creating agent")
	}
	baseURL, err := normalizeAPIURL(in.APIURL)
	if err != nil {
		return nil, err
	}

	agent := &models.Agent{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Model:       in.Model,
		APIKey:      in.APIKey,
		APIURL:      baseURL,
		Status:      models.AgentStatusOnline,
		Owner:       owner,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	return agent, nil
}

// ListAgents returns the owner's agents.
func (s *Service) ListAgents(ctx context.Context, owner string) ([]*models.Agent, error) {
	return s.repo.ListAgents(ctx, owner)
}

// GetAgent returns one agent, enforcing ownership.
func (s *Service) GetAgent(ctx context.Context, id, owner string) (*models.Agent, error) {
	agent, err := s.repo.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent.Owner != owner {
		return nil, ErrForbidden
	}
	return agent, nil
}

// UpdateAgentInput carries the updatable agent fields. Nil fields are left
// untouched.
type UpdateAgentInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
	Model       *string `json:"model,omitempty"`
	APIKey      *string `json:"api_key,omitempty"`
	APIURL      *string `json:"api_url,omitempty"`
}

// UpdateAgent applies changes to an agent, enforcing ownership.
func (s *Service) UpdateAgent(ctx context.Context, id string, in UpdateAgentInput, owner string) (*models.Agent, error) {
	agent, err := s.GetAgent(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		agent.Name = *in.Name
	}
	if in.Description != nil {
		agent.Description = *in.Description
	}
	if in.Type != nil {
		agent.Type = *in.Type
	}
	if in.Model != nil {
		agent.Model = *in.Model
	}
	if in.APIKey != nil {
		agent.APIKey = *in.APIKey
	}
	if in.APIURL != nil {
		baseURL, err := normalizeAPIURL(*in.APIURL)
		if err != nil {
			return nil, err
		}
		agent.APIURL = baseURL
	}
	agent.UpdatedAt = time.Now()
	if err := s.repo.UpdateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("updating agent: %w", err)
	}
	return agent, nil
}

// DeleteAgent removes an agent, enforcing ownership.
func (s *Service) DeleteAgent(ctx context.Context, id, owner string) error {
	if _, err := s.GetAgent(ctx, id, owner); err != nil {
		return err
	}
	return s.repo.DeleteAgent(ctx, id)
}

func normalizeAPIURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid agent API URL %q", raw)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
