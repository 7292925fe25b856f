// Package handlers contains the http handlers of the stub service registry.
package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"servicediscovery/domain"
	"servicediscovery/helpers"
	"servicediscovery/interfaces"
	"servicediscovery/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	apiPrefix     = "/api/v1"
	instancesPath = apiPrefix + "/instances"
)

// HTTPServer serves the registry REST surface backed by a TTL cache.
type HTTPServer struct {
	cache     interfaces.Cache[domain.Instance]
	validator *PayloadValidator
	clock     interfaces.TimeProvider
	logger    log.Logger
}

// NewHTTPServer creates a new HTTPServer.
func NewHTTPServer(cache interfaces.Cache[domain.Instance], validator *PayloadValidator, clock interfaces.TimeProvider, logger log.Logger) *HTTPServer {
	helpers.NilPanic(cache, "handlers.http.go: cache is required")
	helpers.NilPanic(validator, "handlers.http.go: validator is required")
	helpers.NilPanic(clock, "handlers.http.go: clock is required")
	helpers.NilPanic(logger, "handlers.http.go: logger is required")

	return &HTTPServer{
		cache:     cache,
		validator: validator,
		clock:     clock,
		logger:    log.WithPrefix(logger, "component", "HTTPServer"),
	}
}

// RegisterHandlers mounts the registry routes on e. Every route requires "Authorization: Bearer <token>".
func RegisterHandlers(e *echo.Echo, s *HTTPServer, token string) {
	g := e.Group(apiPrefix, BearerAuth(token))
	g.GET("/instances", s.ListInstances)
	g.POST("/instances", s.RegisterInstance)
	g.PUT("/instances/:id/heartbeat", s.RenewInstance)
	g.DELETE("/instances/:id", s.DeregisterInstance)
}

// BearerAuth rejects requests whose bearer token differs from token.
func BearerAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ectx echo.Context) error {
			got, ok := strings.CutPrefix(ectx.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || got == "" || got != token {
				return service.NewAuthenticationError("Unauthorized: invalid or missing bearer token", "")
			}
			return next(ectx)
		}
	}
}

// RegisterInstance (POST /api/v1/instances) stores a new instance under a generated id. Returns 201 with its links.
func (h *HTTPServer) RegisterInstance(ectx echo.Context) error {
	body, err := io.ReadAll(ectx.Request().Body)
	if err != nil {
		return service.NewValidationError("invalid request body", err.Error())
	}
	if err := h.validator.ValidateRegistration(body); err != nil {
		return err
	}
	req, err := fromRegistrationBody(body)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	instance := toInstance(id, req, instanceLinks(baseURL(ectx), id), h.clock.Now())

	ctx := ectx.Request().Context()
	if err := h.cache.WriteValue(ctx, id, instance, ttlMs(instance.TTL)); err != nil {
		return fmt.Errorf("registerInstance failed to write instance to cache, err: %w", err)
	}

	level.Info(h.logger).Log("msg", "instance registered", "id", id, "service_name", instance.ServiceName, "ttl", instance.TTL)
	return ectx.JSON(http.StatusCreated, registrationResponse{ID: id, Links: instance.Links})
}

// RenewInstance (PUT /api/v1/instances/{id}/heartbeat) refreshes the instance ttl. Returns 410 for unknown ids.
func (h *HTTPServer) RenewInstance(ectx echo.Context) error {
	id := ectx.Param("id")
	ctx := ectx.Request().Context()

	instance, err := h.cache.ReadValue(ctx, id)
	if err != nil {
		if service.IsNotFoundError(err) {
			return service.NewResourceGoneError("Service instance not found: "+id, "")
		}
		return fmt.Errorf("renewInstance failed to read instance from cache, err: %w", err)
	}

	instance.LastHeartbeat = formatHeartbeat(h.clock.Now())
	if err := h.cache.WriteValue(ctx, id, instance, ttlMs(instance.TTL)); err != nil {
		return fmt.Errorf("renewInstance failed to write instance to cache, err: %w", err)
	}

	level.Debug(h.logger).Log("msg", "instance renewed", "id", id)
	return ectx.NoContent(http.StatusOK)
}

// DeregisterInstance (DELETE /api/v1/instances/{id}) removes the instance. Returns 410 for unknown ids.
func (h *HTTPServer) DeregisterInstance(ectx echo.Context) error {
	id := ectx.Param("id")
	ctx := ectx.Request().Context()

	if _, err := h.cache.ReadValue(ctx, id); err != nil {
		if service.IsNotFoundError(err) {
			return service.NewResourceGoneError("Service instance not found: "+id, "")
		}
		return fmt.Errorf("deregisterInstance failed to read instance from cache, err: %w", err)
	}
	if err := h.cache.DeleteValue(ctx, id); err != nil {
		return fmt.Errorf("deregisterInstance failed to delete instance from cache, err: %w", err)
	}

	level.Info(h.logger).Log("msg", "instance deregistered", "id", id)
	return ectx.NoContent(http.StatusOK)
}

// ListInstances (GET /api/v1/instances) returns live instances matching service_name, status and tags.
// fields restricts the attributes of each returned instance.
func (h *HTTPServer) ListInstances(ectx echo.Context) error {
	fields, err := parseFields(ectx.QueryParam("fields"))
	if err != nil {
		return err
	}
	filter := instanceFilter{
		serviceName: ectx.QueryParam("service_name"),
		status:      ectx.QueryParam("status"),
		tags:        splitList(ectx.QueryParam("tags")),
	}

	ctx := ectx.Request().Context()
	instances, err := h.cache.ListAllValues(ctx)
	if err != nil {
		return fmt.Errorf("listInstances failed to list all instances from cache, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, toInstancesResponse(filter.apply(instances), fields))
}

func baseURL(ectx echo.Context) string {
	return ectx.Scheme() + "://" + ectx.Request().Host
}

func ttlMs(ttlSeconds int) int {
	return ttlSeconds * 1000
}
