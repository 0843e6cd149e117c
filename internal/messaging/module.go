package messaging

import (
	"transferdesk_backend/internal/events"
	apphttp "transferdesk_backend/internal/http"
	"transferdesk_backend/internal/messaging/handler"
	"transferdesk_backend/internal/messaging/inapp"
	"transferdesk_backend/internal/messaging/messages"
	"transferdesk_backend/internal/messaging/outbox"
	"transferdesk_backend/internal/messaging/repository"
	pitchrepo "transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/platform/logger"
	"transferdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the messaging bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	dispatcher *Dispatcher
	messages   *messages.Service
}

// NewModule creates and initializes the messaging module and subscribes the
// dispatcher to the event bus.
func NewModule(pool *pgxpool.Pool, pitchRepo *pitchrepo.Repository, countersSvc CounterBumper, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	msgRepo := repository.New(pool)
	notificationsSvc := inapp.NewService(inapp.NewRepository(pool), log)
	messagesSvc := messages.New(msgRepo, pitchRepo, notificationsSvc, countersSvc, log)

	dispatcher := NewDispatcher(msgRepo, notificationsSvc, countersSvc, outbox.New(pool), log)
	dispatcher.Register(eventBus)

	h := handler.New(messagesSvc, notificationsSvc, val)

	return &Module{handler: h, dispatcher: dispatcher, messages: messagesSvc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "messaging"
}

// RegisterRoutes mounts message and notification routes on the provided
// router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterMessageRoutes(ctx.Protected.Group("/messages"))
	m.handler.RegisterNotificationRoutes(ctx.Protected.Group("/notifications"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
