// Package pitches provides the pitch marketplace bounded context module.
// This file defines the module that encapsulates all pitches setup and route registration.
package pitches

import (
	"transferdesk_backend/internal/events"
	apphttp "transferdesk_backend/internal/http"
	"transferdesk_backend/internal/pitches/counters"
	"transferdesk_backend/internal/pitches/handler"
	"transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/internal/pitches/service"
	"transferdesk_backend/internal/profiles"
	"transferdesk_backend/platform/logger"
	"transferdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the pitches bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	counters *counters.Service
	repo     *repository.Repository
}

// NewModule creates and initializes the pitches module with all its dependencies.
// rdb may be nil; counters are then disabled and every bump is a no-op.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, profilesSvc *profiles.Service, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	countersSvc := counters.New(rdb, repo, log)
	svc := service.New(repo, profilesSvc, countersSvc, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler:  h,
		service:  svc,
		counters: countersSvc,
		repo:     repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pitches"
}

// Service returns the pitches service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Counters returns the counter service so other modules can bump pitch counters.
func (m *Module) Counters() *counters.Service {
	return m.counters
}

// Repository returns the pitches repository for the negotiation orchestrator.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pitches routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	pitchesGroup := ctx.Protected.Group("/pitches")
	m.handler.RegisterRoutes(pitchesGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
