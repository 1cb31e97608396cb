package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"agentia/backend/internal/auth"
	"agentia/backend/internal/marketplace"
	"agentia/backend/pkg/models"
)

func owner(c echo.Context) string {
	return auth.OwnerFromContext(c.Request().Context())
}

// ListAgents returns the caller's agents.
// (GET /api/v1/agents)
func (s *Server) ListAgents(c echo.Context) error {
	agents, err := s.Marketplace.ListAgents(c.Request().Context(), owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, agents)
}

// CreateAgent registers a new agent for the caller.
// (POST /api/v1/agents)
func (s *Server) CreateAgent(c echo.Context) error {
	var in marketplace.CreateAgentInput
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	agent, err := s.Marketplace.CreateAgent(c.Request().Context(), in, owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusCreated, agent)
}

// GetAgent returns a single agent.
// (GET /api/v1/agents/:id)
func (s *Server) GetAgent(c echo.Context) error {
	agent, err := s.Marketplace.GetAgent(c.Request().Context(), c.Param("id"), owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, agent)
}

// UpdateAgent updates an agent.
// (PUT /api/v1/agents/:id)
func (s *Server) UpdateAgent(c echo.Context) error {
	var in marketplace.UpdateAgentInput
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	agent, err := s.Marketplace.UpdateAgent(c.Request().Context(), c.Param("id"), in, owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, agent)
}

// DeleteAgent removes an agent.
// (DELETE /api/v1/agents/:id)
func (s *Server) DeleteAgent(c echo.Context) error {
	if err := s.Marketplace.DeleteAgent(c.Request().Context(), c.Param("id"), owner(c)); err != nil {
		return failure(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListServices returns the caller's services.
// (GET /api/v1/services)
func (s *Server) ListServices(c echo.Context) error {
	services, err := s.Marketplace.ListServices(c.Request().Context(), owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, services)
}

// CreateService publishes a new service.
// (POST /api/v1/services)
func (s *Server) CreateService(c echo.Context) error {
	var in marketplace.CreateServiceInput
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	svc, err := s.Marketplace.CreateService(c.Request().Context(), in, owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusCreated, svc)
}

// GetService returns a single service.
// (GET /api/v1/services/:id)
func (s *Server) GetService(c echo.Context) error {
	svc, err := s.Marketplace.GetService(c.Request().Context(), c.Param("id"), owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, svc)
}

// DeleteService removes a service.
// (DELETE /api/v1/services/:id)
func (s *Server) DeleteService(c echo.Context) error {
	if err := s.Marketplace.DeleteService(c.Request().Context(), c.Param("id"), owner(c)); err != nil {
		return failure(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type updateStatusRequest struct {
	Status models.ServiceStatus `json:"status"`
}

// UpdateServiceStatus moves a service through its lifecycle.
// (PUT /api/v1/services/:id/status)
func (s *Server) UpdateServiceStatus(c echo.Context) error {
	var in updateStatusRequest
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	svc, err := s.Marketplace.UpdateServiceStatus(c.Request().Context(), c.Param("id"), in.Status, owner(c))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, svc)
}
