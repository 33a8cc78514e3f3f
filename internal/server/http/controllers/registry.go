package controllers

import (
	"github.com/go-chi/chi/v5"

	"github.com/rzbill/streamer/internal/runtime"
	streamsvc "github.com/rzbill/streamer/internal/services/streams"
	"github.com/rzbill/streamer/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	streams *StreamsController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, svc *streamsvc.Service, logger log.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt, svc),
		streams: NewStreamsController(svc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given router.
func (r *ControllerRegistry) RegisterAllRoutes(router chi.Router) {
	r.general.RegisterRoutes(router)
	r.streams.RegisterRoutes(router)
}
