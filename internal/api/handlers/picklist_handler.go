package handlers

import (
	"context"
	"net/http"

	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/service"
	"example.com/backstage/services/picking/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// PickListHandler handles pick-list generation and lifecycle requests
type PickListHandler struct {
	pickLists service.PickListService
	carriers  service.CarrierService
	tracer    tracing.Tracer
}

// NewPickListHandler creates a new pick list handler
func NewPickListHandler(pickLists service.PickListService, carriers service.CarrierService, tracer tracing.Tracer) *PickListHandler {
	return &PickListHandler{pickLists: pickLists, carriers: carriers, tracer: tracer}
}

// AssignCarrierRequest names the carrier to bind
type AssignCarrierRequest struct {
	Identifier *int `json:"identifier" binding:"required"`
}

// Generate draws a new pick list for the actor's warehouse
func (h *PickListHandler) Generate(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	pickList, err := h.pickLists.Generate(c.Request.Context(), actorID)
	if err != nil {
		WriteError(c, err)
		return
	}
	// nil outside the New Relic middleware
	h.tracer.AddAttribute(nrgin.Transaction(c), "pick_count", len(pickList.Picks))
	c.JSON(http.StatusCreated, pickList)
}

func (h *PickListHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	pickList, err := h.pickLists.Get(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, pickList)
}

func (h *PickListHandler) List(c *gin.Context) {
	warehouseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	pickLists, err := h.pickLists.List(c.Request.Context(), warehouseID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, pickLists)
}

func (h *PickListHandler) Confirm(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	pickList, err := h.pickLists.Confirm(c.Request.Context(), id, actorID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, pickList)
}

func (h *PickListHandler) Finish(c *gin.Context) {
	h.transition(c, h.pickLists.Finish)
}

func (h *PickListHandler) AssignCarrier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AssignCarrierRequest
	if !bindJSON(c, &req) {
		return
	}

	pickList, err := h.carriers.UpdateCarrier(c.Request.Context(), id, *req.Identifier)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, pickList)
}

func (h *PickListHandler) Clear(c *gin.Context) {
	h.remove(c, h.pickLists.Clear)
}

func (h *PickListHandler) Delete(c *gin.Context) {
	h.remove(c, h.pickLists.Delete)
}

func (h *PickListHandler) ConfirmPick(c *gin.Context) {
	h.stamp(c, h.pickLists.ConfirmPick)
}

func (h *PickListHandler) PluckPick(c *gin.Context) {
	h.stamp(c, h.pickLists.PluckPick)
}

func (h *PickListHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*models.PickList, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pickList, err := fn(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, pickList)
}

func (h *PickListHandler) remove(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PickListHandler) stamp(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*models.Pick, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pick, err := fn(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, pick)
}

// RegisterRoutes registers the handler's routes
func (h *PickListHandler) RegisterRoutes(api *gin.RouterGroup) {
	pickLists := api.Group("/picklists")
	{
		pickLists.POST("", h.Generate)
		pickLists.GET("/:id", h.Get)
		pickLists.DELETE("/:id", h.Delete)
		pickLists.POST("/:id/confirm", h.Confirm)
		pickLists.POST("/:id/finish", h.Finish)
		pickLists.POST("/:id/clear", h.Clear)
		pickLists.POST("/:id/carrier", h.AssignCarrier)
	}

	api.GET("/warehouses/:id/picklists", h.List)

	picks := api.Group("/picks")
	{
		picks.POST("/:id/confirm", h.ConfirmPick)
		picks.POST("/:id/pluck", h.PluckPick)
	}
}
