// Package handler exposes the contracts HTTP API.
package handler

import (
	"net/http"

	"transferdesk_backend/internal/contracts/service"
	"transferdesk_backend/internal/contracts/transport"
	"transferdesk_backend/platform/httpkit"
	"transferdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
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
	rg.GET("", h.ListMine)
	rg.POST("", h.Create)
	rg.GET("/pitch/:pitchId", h.ListForPitch)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id/terms", h.UpdateTerms)
	rg.POST("/:id/advance", h.Advance)
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

	var req transport.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contract, err := h.svc.Create(c.Request.Context(), id.ProfileID(), service.CreateParams{
		PitchID:  req.PitchID,
		AgentID:  req.AgentID,
		Terms:    req.Terms,
		FeeCents: req.FeeCents,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToContractResponse(contract))
}

func (h *Handler) Advance(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AdvanceContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contract, err := h.svc.Advance(c.Request.Context(), id.ProfileID(), id.UserType(), contractID, req.Action)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToContractResponse(contract))
}

func (h *Handler) UpdateTerms(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.IsTeam() {
		httpkit.Error(c, http.StatusForbidden, msgTeamOnly, nil)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contract, err := h.svc.UpdateTerms(c.Request.Context(), id.ProfileID(), contractID, req.Terms, req.FeeCents)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToContractResponse(contract))
}

func (h *Handler) GetByID(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	contract, err := h.svc.GetByID(c.Request.Context(), id.ProfileID(), id.UserType(), contractID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToContractResponse(contract))
}

func (h *Handler) ListMine(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	items, err := h.svc.ListForOwner(c.Request.Context(), id.ProfileID(), id.UserType())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToContractResponses(items))
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

	items, err := h.svc.ListForPitch(c.Request.Context(), id.ProfileID(), pitchID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToContractResponses(items))
}
