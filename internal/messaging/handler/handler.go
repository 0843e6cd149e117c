// Package handler exposes the messages and notifications HTTP API.
package handler

import (
	"net/http"
	"strconv"

	"transferdesk_backend/internal/messaging/inapp"
	"transferdesk_backend/internal/messaging/messages"
	"transferdesk_backend/platform/httpkit"
	"transferdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type SendMessageRequest struct {
	PitchID    uuid.UUID `json:"pitchId" validate:"required"`
	ReceiverID uuid.UUID `json:"receiverId" validate:"required"`
	Body       string    `json:"body" validate:"required,min=1,max=5000"`
}

type Handler struct {
	messages      *messages.Service
	notifications *inapp.Service
	val           *validator.Validator
}

func New(messagesSvc *messages.Service, notificationsSvc *inapp.Service, val *validator.Validator) *Handler {
	return &Handler{messages: messagesSvc, notifications: notificationsSvc, val: val}
}

func (h *Handler) RegisterMessageRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Send)
	rg.GET("/inbox", h.Inbox)
	rg.GET("/pitch/:pitchId", h.ListForPitch)
}

func (h *Handler) RegisterNotificationRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListNotifications)
	rg.GET("/unread-count", h.UnreadCount)
	rg.POST("/:id/read", h.MarkRead)
	rg.POST("/read-all", h.MarkAllRead)
}

func (h *Handler) Send(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), id.ProfileID(), id.UserType(), messages.SendParams{
		PitchID:    req.PitchID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, msg)
}

func (h *Handler) Inbox(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	limit, offset := pagination(c)
	items, err := h.messages.ListInbox(c.Request.Context(), id.ProfileID(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

func (h *Handler) ListForPitch(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	pitchID, err := uuid.Parse(c.Param("pitchId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	items, err := h.messages.ListForPitch(c.Request.Context(), pitchID, id.ProfileID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

func (h *Handler) ListNotifications(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	limit, offset := pagination(c)
	items, total, err := h.notifications.List(c.Request.Context(), id.ProfileID(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": total})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), id.ProfileID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"count": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id.ProfileID(), notificationID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "read"})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), id.ProfileID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": updated})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
