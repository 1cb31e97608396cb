// Package api contains the HTTP handlers for the Agentia backend.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"agentia/backend/internal/configuration"
	"agentia/backend/internal/execution"
	"agentia/backend/internal/marketplace"
	"agentia/backend/internal/repository"
	"agentia/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Server holds the dependencies for the API server.
type Server struct {
	Marketplace *marketplace.Service
	Executions  *execution.Service
	Configs     *configuration.Service
	Logger      Logger
}

// NewServer creates a new Server.
func NewServer(mkt *marketplace.Service, exec *execution.Service, configs *configuration.Service, logger Logger) *Server {
	return &Server{Marketplace: mkt, Executions: exec, Configs: configs, Logger: logger}
}

// Register mounts all API routes on the given group.
func (s *Server) Register(g *echo.Group) {
	g.GET("/agents", s.ListAgents)
	g.POST("/agents", s.CreateAgent)
	g.GET("/agents/:id", s.GetAgent)
	g.PUT("/agents/:id", s.UpdateAgent)
	g.DELETE("/agents/:id", s.DeleteAgent)

	g.GET("/services", s.ListServices)
	g.POST("/services", s.CreateService)
	g.GET("/services/:id", s.GetService)
	g.DELETE("/services/:id", s.DeleteService)
	g.PUT("/services/:id/status", s.UpdateServiceStatus)

	g.GET("/services/:id/config", s.GetConfiguration)
	g.PUT("/services/:id/config", s.UpdateConfiguration)

	g.POST("/services/:id/execute", s.ExecuteService)
	g.POST("/services/:id/proxy", s.ExecuteProxy)
	g.POST("/services/:id/workflow", s.ExecuteWorkflow)
	g.POST("/services/:id/validate", s.ValidateInput)
}

// HandleHealth returns basic health status (always returns 200 OK).
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    "ok",
		Service:   "agentia-backend",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

// problem writes an RFC 7807 Problem Details JSON error response.
func problem(c echo.Context, status int, title, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, models.ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// failure maps a service-layer error to a problem response.
func failure(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return problem(c, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, marketplace.ErrForbidden):
		return problem(c, http.StatusForbidden, "Forbidden", err.Error())
	default:
		return problem(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
