package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"agentia/backend/internal/config"
	"agentia/backend/internal/logging"
	"agentia/backend/internal/repository"
	"agentia/backend/pkg/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	// Load config
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to DB
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	store := repository.NewPostgres(pool)
	if err := store.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	owner := "dev@localhost"

	// 1. Check for existing services to prevent duplicates
	existing, err := store.ListServices(ctx, owner)
	if err != nil {
		log.Fatalf("Failed to list services: %v", err)
	}
	if len(existing) > 0 {
		logger.Info("Seed data already present, nothing to do", "services", len(existing))
		return
	}

	providerCfg, ok := cfg.AI.Providers[cfg.AI.DefaultProvider]
	if !ok {
		log.Fatalf("Default provider %q not configured", cfg.AI.DefaultProvider)
	}

	// 2. Demo agent backed by the default provider
	now := time.Now()
	agent := &models.Agent{
		ID:          uuid.New().String(),
		Name:        "Demo Agent",
		Description: "Local demo agent backed by the default AI provider",
		Type:        "llm",
		Model:       providerCfg.Model,
		APIURL:      providerCfg.BaseURL,
		APIKey:      providerCfg.APIKey,
		Status:      models.AgentStatusOnline,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.CreateAgent(ctx, agent); err != nil {
		log.Fatalf("Failed to create agent: %v", err)
	}
	logger.Info("Created demo agent", "id", agent.ID)

	// 3. Demo translation service
	inputs, _ := json.Marshal([]map[string]any{
		{"key": "topic", "label": "Topic", "type": "string"},
		{"key": "language", "label": "Target language", "type": "string"},
	})
	service := &models.Service{
		ID:          uuid.New().String(),
		Name:        "Translation Service",
		Description: "Translates a short text into the requested language",
		Category:    "language",
		AgentID:     agent.ID,
		Model:       agent.Model,
		Prompt:      "You are a professional translator.",
		Inputs:      inputs,
		Status:      models.ServiceStatusActive,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.CreateService(ctx, service); err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	logger.Info("Created demo service", "id", service.ID)

	// 4. Configuration with a required input field so the validation stage
	// has something to gate on
	svcCfg := &models.ServiceConfiguration{
		ID:        uuid.New().String(),
		ServiceID: service.ID,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic": map[string]any{
					"type":        "string",
					"title":       "Topic",
					"description": "The text or topic to translate",
				},
				"language": map[string]any{
					"type":        "string",
					"title":       "Target language",
					"description": "Language to translate into",
				},
			},
			"required": []any{"topic", "language"},
		},
		OutputSchema: map[string]any{"type": "object"},
		SystemPrompt: "You are a professional translator. Preserve tone and meaning.",
		UserPrompt:   "Translate the following input.",
		Metadata: &models.ConfigMetadata{
			Version:   "1.0.0",
			CreatedBy: owner,
			CreatedAt: now,
			UpdatedAt: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateConfiguration(ctx, svcCfg); err != nil {
		log.Fatalf("Failed to create configuration: %v", err)
	}
	logger.Info("Created demo configuration", "id", svcCfg.ID)

	logger.Info("Seed complete", "service_id", service.ID)
}
