package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"agentia/backend/pkg/models"
)

func TestPostgres(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	store := NewPostgres(pool)
	if err := store.InitSchema(ctx); err != nil {
		t.Fatal(err)
	}

	owner := "alice@example.com"

	agent := &models.Agent{
		ID:     uuid.New().String(),
		Name:   "demo agent",
		Type:   "llm",
		Model:  "demo-model",
		APIURL: "http://localhost:11434",
		APIKey: "test-key",
		Status: models.AgentStatusOnline,
		Owner:  owner,
	}

	t.Run("agent round trip", func(t *testing.T) {
		require.NoError(t, store.CreateAgent(ctx, agent))

		got, err := store.GetAgent(ctx, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, agent.Name, got.Name)
		assert.Equal(t, agent.APIURL, got.APIURL)
		assert.Equal(t, agent.APIKey, got.APIKey)
		assert.Equal(t, models.AgentStatusOnline, got.Status)

		agents, err := store.ListAgents(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, agents, 1)

		got.Status = models.AgentStatusOffline
		require.NoError(t, store.UpdateAgent(ctx, got))
		got, err = store.GetAgent(ctx, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AgentStatusOffline, got.Status)
	})

	t.Run("missing agent maps to ErrNotFound", func(t *testing.T) {
		_, err := store.GetAgent(ctx, uuid.New().String())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	svc := &models.Service{
		ID:      uuid.New().String(),
		Name:    "Translator",
		AgentID: agent.ID,
		Model:   "demo-model",
		Prompt:  "You translate.",
		Inputs:  json.RawMessage(`[{"key":"topic"}]`),
		Status:  models.ServiceStatusTesting,
		Owner:   owner,
	}

	t.Run("service round trip", func(t *testing.T) {
		require.NoError(t, store.CreateService(ctx, svc))

		got, err := store.GetService(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, svc.Name, got.Name)
		assert.Equal(t, agent.ID, got.AgentID)
		assert.JSONEq(t, `[{"key":"topic"}]`, string(got.Inputs))

		services, err := store.ListServices(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, services, 1)

		other, err := store.ListServices(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("configuration round trip", func(t *testing.T) {
		cfg := &models.ServiceConfiguration{
			ID:        uuid.New().String(),
			ServiceID: svc.ID,
			InputSchema: map[string]any{
				"type":     "object",
				"required": []any{"topic"},
			},
			OutputSchema: map[string]any{"type": "object"},
			SystemPrompt: "system",
			UserPrompt:   "user",
			Metadata:     &models.ConfigMetadata{Version: "1.0.0", CreatedBy: owner},
		}
		require.NoError(t, store.CreateConfiguration(ctx, cfg))

		got, err := store.GetConfigurationByServiceID(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, cfg.ID, got.ID)
		assert.Equal(t, []any{"topic"}, got.InputSchema["required"])
		require.NotNil(t, got.Metadata)
		assert.Equal(t, "1.0.0", got.Metadata.Version)

		got.SystemPrompt = "updated system"
		require.NoError(t, store.UpdateConfiguration(ctx, got))
		got, err = store.GetConfigurationByServiceID(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated system", got.SystemPrompt)
	})

	t.Run("configuration version snapshots", func(t *testing.T) {
		latest, err := store.LatestConfigVersion(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, latest)

		require.NoError(t, store.CreateConfigVersion(ctx, &models.ServiceConfigVersion{
			ID:          uuid.New().String(),
			ServiceID:   svc.ID,
			Version:     1,
			Config:      json.RawMessage(`{"systemPrompt":"system"}`),
			PublishedBy: owner,
		}))
		require.NoError(t, store.CreateConfigVersion(ctx, &models.ServiceConfigVersion{
			ID:        uuid.New().String(),
			ServiceID: svc.ID,
			Version:   2,
			Config:    json.RawMessage(`{"systemPrompt":"updated system"}`),
			Notes:     "prompt rewrite",
		}))

		latest, err = store.LatestConfigVersion(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, latest)
	})

	t.Run("execution lifecycle", func(t *testing.T) {
		exec := &models.Execution{
			ID:        uuid.New().String(),
			ServiceID: svc.ID,
			Status:    models.ExecutionStatusPending,
			Input:     json.RawMessage(`{"topic":"go"}`),
			StartedAt: time.Now(),
		}
		require.NoError(t, store.CreateExecution(ctx, exec))

		errMsg := "processing error: boom"
		now := time.Now()
		exec.Status = models.ExecutionStatusFailed
		exec.Error = &errMsg
		exec.CompletedAt = &now
		require.NoError(t, store.UpdateExecution(ctx, exec))

		got, err := store.GetExecution(ctx, exec.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusFailed, got.Status)
		require.NotNil(t, got.Error)
		assert.Equal(t, errMsg, *got.Error)
		assert.NotNil(t, got.CompletedAt)

		require.NoError(t, store.AppendLog(ctx, &models.LogEntry{
			ID:          uuid.New().String(),
			ExecutionID: exec.ID,
			Level:       "error",
			Message:     "workflow failed",
			Metadata:    json.RawMessage(`{"step":2}`),
		}))
	})

	t.Run("delete cascades configuration", func(t *testing.T) {
		victim := &models.Service{
			ID:      uuid.New().String(),
			Name:    "short lived",
			AgentID: agent.ID,
			Model:   "demo-model",
			Prompt:  "x",
			Status:  models.ServiceStatusTesting,
			Owner:   owner,
		}
		require.NoError(t, store.CreateService(ctx, victim))
		require.NoError(t, store.CreateConfiguration(ctx, &models.ServiceConfiguration{
			ID:           uuid.New().String(),
			ServiceID:    victim.ID,
			InputSchema:  map[string]any{"type": "object"},
			OutputSchema: map[string]any{"type": "object"},
		}))

		require.NoError(t, store.DeleteService(ctx, victim.ID))

		_, err := store.GetService(ctx, victim.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetConfigurationByServiceID(ctx, victim.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
