package discovery

import (
	"service-map/core/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	enabled bool
}

// NewFeature creates the discovery feature for one map surface.
func NewFeature(sessions *session.Manager, surface string, build Builder, logger *zap.Logger) *Feature {
	svc := NewService(sessions, surface, build, logger)
	return &Feature{service: svc, handler: NewHandler(svc), enabled: build != nil}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "discovery"
}

// IsEnabled reports whether a session builder was configured.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service returns the feature's service.
func (f *Feature) Service() *Service {
	return f.service
}
