// Package contracts provides the contract lifecycle bounded context module.
package contracts

import (
	"transferdesk_backend/internal/contracts/handler"
	"transferdesk_backend/internal/contracts/repository"
	"transferdesk_backend/internal/contracts/service"
	"transferdesk_backend/internal/events"
	apphttp "transferdesk_backend/internal/http"
	pitchrepo "transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/platform/logger"
	"transferdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contracts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the contracts module with all its dependencies.
func NewModule(pool *pgxpool.Pool, pitchRepo *pitchrepo.Repository, interestMarker service.InterestMarker, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pitchRepo, interestMarker, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contracts"
}

// Service returns the contracts service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts contracts routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	contractsGroup := ctx.Protected.Group("/contracts")
	m.handler.RegisterRoutes(contractsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
