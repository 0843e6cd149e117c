// Package handler exposes the pitches HTTP API.
package handler

import (
	"net/http"

	"transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/internal/pitches/service"
	"transferdesk_backend/internal/pitches/transport"
	"transferdesk_backend/platform/httpkit"
	"transferdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgTeamOnly         = "only teams can perform this action"
	msgAgentOnly        = "only agents can perform this action"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/withdraw", h.Withdraw)
	rg.POST("/:id/view", h.RecordView)
	rg.PUT("/:id/shortlist", h.Shortlist)
	rg.DELETE("/:id/shortlist", h.Unshortlist)
}

func (h *Handler) Create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsTeam() {
		httpkit.Error(c, http.StatusForbidden, msgTeamOnly, nil)
		return
	}

	var req transport.CreatePitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	pitch, err := h.svc.Create(c.Request.Context(), id.ProfileID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToPitchResponse(pitch))
}

func (h *Handler) GetByID(c *gin.Context) {
	pitchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	pitch, err := h.svc.GetByID(c.Request.Context(), pitchID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPitchResponse(pitch))
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListPitchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), repository.ListParams{
		TeamID:    req.TeamID,
		Status:    req.Status,
		DealStage: req.DealStage,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListPitchesResponse(result))
}

func (h *Handler) Withdraw(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsTeam() {
		httpkit.Error(c, http.StatusForbidden, msgTeamOnly, nil)
		return
	}

	pitchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.Withdraw(c.Request.Context(), pitchID, id.ProfileID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "withdrawn"})
}

func (h *Handler) RecordView(c *gin.Context) {
	pitchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	h.svc.RecordView(c.Request.Context(), pitchID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Shortlist(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsAgent() {
		httpkit.Error(c, http.StatusForbidden, msgAgentOnly, nil)
		return
	}

	pitchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.Shortlist(c.Request.Context(), id.ProfileID(), pitchID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "shortlisted"})
}

func (h *Handler) Unshortlist(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsAgent() {
		httpkit.Error(c, http.StatusForbidden, msgAgentOnly, nil)
		return
	}

	pitchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.Unshortlist(c.Request.Context(), id.ProfileID(), pitchID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "removed"})
}
