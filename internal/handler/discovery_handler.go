package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-discovery-api/internal/dto"
	"github.com/noah-isme/trainer-discovery-api/internal/middleware"
	"github.com/noah-isme/trainer-discovery-api/internal/models"
	"github.com/noah-isme/trainer-discovery-api/internal/service"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
	"github.com/noah-isme/trainer-discovery-api/pkg/response"
)

type discoveryService interface {
	Create(ctx context.Context, filter models.DiscoveryFilter) (*service.CreatedSession, error)
	ApplyFilters(ctx context.Context, id string, filter models.DiscoveryFilter) (models.DiscoverySnapshot, error)
	LoadMore(ctx context.Context, id string) (models.DiscoverySnapshot, error)
	Snapshot(id string) (models.DiscoverySnapshot, error)
	DismissError(id string) (models.DiscoverySnapshot, error)
	Close(id string) error
	Renew(id string) (models.SessionHandle, error)
	Cities() []service.CityEntry
}

// DiscoveryHandler exposes discovery sessions over HTTP.
type DiscoveryHandler struct {
	service discoveryService
}

// NewDiscoveryHandler constructs the handler.
func NewDiscoveryHandler(service discoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{service: service}
}

// Create godoc
// @Summary Open a discovery session and run the first load
// @Tags Discovery
// @Accept json
// @Produce json
// @Param payload body dto.DiscoveryFilterRequest false "Filter selection"
// @Success 201 {object} response.Envelope
// @Router /discovery/sessions [post]
func (h *DiscoveryHandler) Create(c *gin.Context) {
	req, ok := bindFilter(c)
	if !ok {
		return
	}
	created, err := h.service.Create(c.Request.Context(), req.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := dto.NewDiscoverySessionResponse(created.Snapshot)
	handle := created.Handle
	resp.Handle = &handle
	c.Header(middleware.SessionHeader, handle.Token)
	response.Created(c, resp, created.Snapshot.Pagination(), h.meta(c, created.Snapshot))
}

// Get godoc
// @Summary Current state of a discovery session
// @Tags Discovery
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /discovery/sessions/{id} [get]
func (h *DiscoveryHandler) Get(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Param("id"))
	h.respond(c, snap, err)
}

// ApplyFilters godoc
// @Summary Replace the filter selection and reload from the first page
// @Tags Discovery
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.DiscoveryFilterRequest true "Filter selection"
// @Success 200 {object} response.Envelope
// @Router /discovery/sessions/{id}/filters [put]
func (h *DiscoveryHandler) ApplyFilters(c *gin.Context) {
	req, ok := bindFilter(c)
	if !ok {
		return
	}
	snap, err := h.service.ApplyFilters(c.Request.Context(), c.Param("id"), req.ToFilter())
	h.respond(c, snap, err)
}

// LoadMore godoc
// @Summary Load the next batch (scroll sentinel or manual retry)
// @Tags Discovery
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /discovery/sessions/{id}/more [post]
func (h *DiscoveryHandler) LoadMore(c *gin.Context) {
	snap, err := h.service.LoadMore(c.Request.Context(), c.Param("id"))
	h.respond(c, snap, err)
}

// DismissError godoc
// @Summary Dismiss the session error banner
// @Tags Discovery
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /discovery/sessions/{id}/error [delete]
func (h *DiscoveryHandler) DismissError(c *gin.Context) {
	snap, err := h.service.DismissError(c.Param("id"))
	h.respond(c, snap, err)
}

// Close godoc
// @Summary Close a discovery session
// @Tags Discovery
// @Param id path string true "Session ID"
// @Success 204
// @Router /discovery/sessions/{id} [delete]
func (h *DiscoveryHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Cities godoc
// @Summary Cities accepted by the city filter
// @Tags Discovery
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /discovery/cities [get]
func (h *DiscoveryHandler) Cities(c *gin.Context) {
	entries := h.service.Cities()
	out := make([]dto.CityOption, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.CityOption{Key: e.Key, Canonical: e.Canonical, Aliases: e.Aliases})
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// respond renders the snapshot together with a renewed handle, which the caller must use from now on.
func (h *DiscoveryHandler) respond(c *gin.Context, snap models.DiscoverySnapshot, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	handle, err := h.service.Renew(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := dto.NewDiscoverySessionResponse(snap)
	resp.Handle = &handle
	c.Header(middleware.SessionHeader, handle.Token)
	response.JSON(c, http.StatusOK, resp, snap.Pagination(), h.meta(c, snap))
}

func (h *DiscoveryHandler) meta(c *gin.Context, snap models.DiscoverySnapshot) map[string]interface{} {
	middleware.SetMeta(c, "token", snap.Token)
	middleware.SetMeta(c, "empty", len(snap.Trainers) == 0 && !snap.Loading && snap.Error == "")
	return middleware.ExtractMeta(c)
}

func bindFilter(c *gin.Context) (dto.DiscoveryFilterRequest, bool) {
	var req dto.DiscoveryFilterRequest
	if c.Request.ContentLength == 0 && c.Request.Method == http.MethodPost {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter payload"))
		return req, false
	}
	req.SearchTerm = strings.TrimSpace(req.SearchTerm)
	return req, true
}
