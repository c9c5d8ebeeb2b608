package discovery

import (
	"errors"

	"service-map/core/geolocation"
	"service-map/core/logger"
	"service-map/core/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the discovery map.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the map routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/map")
	group.Get("/session", h.HandleGetSession)
	group.Post("/session/reset", h.HandleResetSession)
	group.Get("/markers", h.HandleListMarkers)
	group.Post("/markers/:id/select", h.HandleSelectMarker)
	group.Get("/entities", h.HandleListEntities)
	group.Post("/locate", h.HandleLocate)
}

// HandleGetSession returns the map session state.
// @Summary Get Map Session
// @Description Initializes the map session if needed and returns its state, failure reason and feed health.
// @Tags map
// @Produce json
// @Success 200 {object} SessionStatus "Ready session"
// @Failure 503 {object} SessionStatus "Session failed to initialize"
// @Router /map/session [get]
func (h *Handler) HandleGetSession(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	status, err := h.service.Status(c.UserContext())
	if err != nil {
		l.Warn("Map session not ready", zap.Error(err))
		if status.ID == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err))
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}

// HandleResetSession tears the session down and starts a new one.
// @Summary Reset Map Session
// @Description Tears down the current session, removing every marker, and initializes a fresh one.
// @Tags map
// @Produce json
// @Success 200 {object} SessionStatus "New session"
// @Failure 503 {object} SessionStatus "Session failed to initialize"
// @Router /map/session/reset [post]
func (h *Handler) HandleResetSession(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	status, err := h.service.Reset(c.UserContext())
	if err != nil {
		l.Warn("Map session reset failed", zap.Error(err))
		if status.ID == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err))
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	l.Info("Map session reset", zap.String("session", status.ID))
	return c.JSON(status)
}

// HandleListMarkers returns the marker keys on the map.
// @Summary List Markers
// @Description Lists the keys of the markers currently on the map, including "self" when the viewer is located.
// @Tags map
// @Produce json
// @Success 200 {array} string "Marker keys"
// @Failure 503 {object} map[string]string "Session not ready"
// @Router /map/markers [get]
func (h *Handler) HandleListMarkers(c *fiber.Ctx) error {
	markers, err := h.service.Markers(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(markers)
}

// HandleSelectMarker taps a marker.
// @Summary Select Marker
// @Description Simulates a tap on the marker of an entity and returns the selected entity.
// @Tags map
// @Produce json
// @Param id path string true "Entity ID"
// @Success 200 {object} Selection "Selected entity"
// @Failure 404 {object} map[string]string "Unknown marker"
// @Failure 503 {object} map[string]string "Session not ready"
// @Router /map/markers/{id}/select [post]
func (h *Handler) HandleSelectMarker(c *fiber.Ctx) error {
	e, err := h.service.Select(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(Selection{Entity: e})
}

// HandleListEntities returns the entity list.
// @Summary List Entities
// @Description Lists the eligible providers the map is showing.
// @Tags map
// @Produce json
// @Success 200 {array} mapping.Entity "Entities"
// @Failure 503 {object} map[string]string "Session not ready"
// @Router /map/entities [get]
func (h *Handler) HandleListEntities(c *fiber.Ctx) error {
	entities, err := h.service.Entities(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(entities)
}

// HandleLocate requests the viewer position.
// @Summary Locate Viewer
// @Description Requests a one-shot position fix and places the self marker.
// @Tags map
// @Produce json
// @Success 200 {object} mapping.Position "Position"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 501 {object} map[string]string "Geolocation unsupported"
// @Failure 503 {object} map[string]string "Position unavailable"
// @Failure 504 {object} map[string]string "Timed out"
// @Router /map/locate [post]
func (h *Handler) HandleLocate(c *fiber.Ctx) error {
	pos, err := h.service.Locate(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(pos)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	l := logger.WithRayID(h.service.logger, c)

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnknownMarker):
		status = fiber.StatusNotFound
	case errors.Is(err, session.ErrDestroyed):
		status = fiber.StatusConflict
	case geolocation.CodeOf(err) == geolocation.PermissionDenied:
		status = fiber.StatusForbidden
	case geolocation.CodeOf(err) == geolocation.Unsupported:
		status = fiber.StatusNotImplemented
	case geolocation.CodeOf(err) == geolocation.Timeout:
		status = fiber.StatusGatewayTimeout
	case geolocation.CodeOf(err) == geolocation.PositionUnavailable:
		status = fiber.StatusServiceUnavailable
	case sdkFailure(err):
		status = fiber.StatusServiceUnavailable
	}

	if status >= fiber.StatusInternalServerError {
		l.Error("Map request failed", zap.Error(err))
	} else {
		l.Debug("Map request rejected", zap.Error(err))
	}
	return c.Status(status).JSON(errorBody(err))
}
