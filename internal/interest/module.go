// Package interest provides the agent interest bounded context module.
package interest

import (
	"transferdesk_backend/internal/events"
	apphttp "transferdesk_backend/internal/http"
	"transferdesk_backend/internal/interest/handler"
	"transferdesk_backend/internal/interest/repository"
	"transferdesk_backend/internal/interest/service"
	"transferdesk_backend/internal/pitches/counters"
	pitchrepo "transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/internal/profiles"
	"transferdesk_backend/platform/logger"
	"transferdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the interest bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the interest module with all its dependencies.
func NewModule(pool *pgxpool.Pool, pitchRepo *pitchrepo.Repository, countersSvc *counters.Service, profilesSvc *profiles.Service, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pitchRepo, profilesSvc, countersSvc, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "interest"
}

// Service returns the interest service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts interest routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	interestGroup := ctx.Protected.Group("/interest")
	m.handler.RegisterRoutes(interestGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
