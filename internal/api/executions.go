package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"agentia/backend/internal/configuration"
	"agentia/backend/internal/repository"
)

type executeRequest struct {
	Input    map[string]any `json:"input"`
	Provider string         `json:"provider,omitempty"`
}

// ExecuteService runs a service with a single AI call, without the staged
// workflow.
// (POST /api/v1/services/:id/execute)
func (s *Server) ExecuteService(c echo.Context) error {
	var in executeRequest
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	result, err := s.Executions.Run(c.Request().Context(), c.Param("id"), in.Input)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ExecuteProxy forwards a raw request to the service's agent endpoint,
// bypassing the workflow engine entirely.
// (POST /api/v1/services/:id/proxy)
func (s *Server) ExecuteProxy(c echo.Context) error {
	var in executeRequest
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	result, err := s.Marketplace.ExecuteDirect(c.Request().Context(), c.Param("id"), in.Input, owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ExecuteWorkflow runs a service through the four-stage workflow engine.
// The call reports success at the transport level even when input was
// incomplete; clients must inspect data.requiresMoreInput and the workflow
// status to render the right state.
// (POST /api/v1/services/:id/workflow)
func (s *Server) ExecuteWorkflow(c echo.Context) error {
	var in executeRequest
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	resp, err := s.Executions.RunWorkflow(c.Request().Context(), c.Param("id"), in.Input, in.Provider)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetConfiguration returns a service's configuration.
// (GET /api/v1/services/:id/config)
func (s *Server) GetConfiguration(c echo.Context) error {
	cfg, err := s.Configs.GetByServiceID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// UpdateConfiguration applies changes to a service's configuration.
// (PUT /api/v1/services/:id/config)
func (s *Server) UpdateConfiguration(c echo.Context) error {
	var in configuration.UpdateRequest
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	cfg, err := s.Configs.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateInput runs strict JSON Schema validation against the service's
// input schema. This is the opt-in strict capability; workflow execution
// performs only the shallow required-field check.
// (POST /api/v1/services/:id/validate)
func (s *Server) ValidateInput(c echo.Context) error {
	var in executeRequest
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if err := s.Configs.ValidateInput(c.Request().Context(), c.Param("id"), in.Input); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failure(c, err)
		}
		return c.JSON(http.StatusOK, validateResponse{Valid: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, validateResponse{Valid: true})
}
