// Package handler exposes the agent interest HTTP API.
package handler

import (
	"net/http"

	"transferdesk_backend/internal/interest/service"
	"transferdesk_backend/internal/interest/transport"
	"transferdesk_backend/platform/httpkit"
	"transferdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgAgentOnly        = "only agents can perform this action"
	msgTeamOnly         = "only teams can perform this action"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Express)
	rg.GET("/mine", h.ListMine)
	rg.GET("/pitch/:pitchId", h.ListForPitch)
	rg.POST("/:id/cancel", h.Cancel)
}

func (h *Handler) Express(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsAgent() {
		httpkit.Error(c, http.StatusForbidden, msgAgentOnly, nil)
		return
	}

	var req transport.ExpressInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	row, err := h.svc.Express(c.Request.Context(), id.ProfileID(), service.ExpressParams{
		PitchID: req.PitchID,
		Status:  req.Status,
		Message: req.Message,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToInterestResponse(row))
}

func (h *Handler) Cancel(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsAgent() {
		httpkit.Error(c, http.StatusForbidden, msgAgentOnly, nil)
		return
	}

	interestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CancelInterestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}

	if err := h.svc.Cancel(c.Request.Context(), id.ProfileID(), interestID, req.Note); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "withdrawn"})
}

func (h *Handler) ListMine(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsAgent() {
		httpkit.Error(c, http.StatusForbidden, msgAgentOnly, nil)
		return
	}

	items, err := h.svc.ListForAgent(c.Request.Context(), id.ProfileID(), includeTerminal(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToInterestResponses(items))
}

func (h *Handler) ListForPitch(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsTeam() {
		httpkit.Error(c, http.StatusForbidden, msgTeamOnly, nil)
		return
	}

	pitchID, err := uuid.Parse(c.Param("pitchId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	items, err := h.svc.ListForPitch(c.Request.Context(), id.ProfileID(), pitchID, includeTerminal(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToInterestResponses(items))
}

func includeTerminal(c *gin.Context) bool {
	return c.Query("includeTerminal") == "true"
}
