package handlers

import (
	"net/http"

	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/service"

	"github.com/gin-gonic/gin"
)

// WarehouseHandler handles warehouses, locations and their occupants
type WarehouseHandler struct {
	inventory service.InventoryService
}

// NewWarehouseHandler creates a new warehouse handler
func NewWarehouseHandler(inventory service.InventoryService) *WarehouseHandler {
	return &WarehouseHandler{inventory: inventory}
}

// CreateWarehouse creates a warehouse and joins the actor to it
func (h *WarehouseHandler) CreateWarehouse(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreateWarehouseRequest
	if !bindJSON(c, &req) {
		return
	}

	warehouse, err := h.inventory.CreateWarehouse(c.Request.Context(), actorID, req)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, warehouse)
}

// GetWarehouse returns the warehouse graph
func (h *WarehouseHandler) GetWarehouse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	graph, err := h.inventory.GetWarehouse(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (h *WarehouseHandler) ClearWarehouse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.ClearWarehouse(c.Request.Context(), id); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WarehouseHandler) DeleteWarehouse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.DeleteWarehouse(c.Request.Context(), id); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WarehouseHandler) AddLocation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.AddLocationRequest
	if !bindJSON(c, &req) {
		return
	}
	// accept lower-case kinds on the wire
	if kind, ok := models.LocationKindFromString(string(req.Kind)); ok {
		req.Kind = kind
	}

	location, err := h.inventory.AddLocation(c.Request.Context(), id, req)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (h *WarehouseHandler) ListLocations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	locations, err := h.inventory.ListLocations(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *WarehouseHandler) RemoveLocation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.RemoveLocation(c.Request.Context(), id, c.Param("code")); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddOccupant places a product or pick list in the location
func (h *WarehouseHandler) AddOccupant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var ref service.EntityRef
	if !bindJSON(c, &ref) {
		return
	}
	if kind, ok := models.LocationKindFromString(string(ref.Kind)); ok {
		ref.Kind = kind
	}

	if err := h.inventory.AddEntityToLocation(c.Request.Context(), id, ref); err != nil {
		WriteError(c, err)
		return
	}

	occupants, err := h.inventory.LocationOccupants(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, occupants)
}

func (h *WarehouseHandler) ListOccupants(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	occupants, err := h.inventory.LocationOccupants(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, occupants)
}

// removeOccupant returns a handler that detaches the :id entity of kind from its location
func (h *WarehouseHandler) removeOccupant(kind models.LocationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		err := h.inventory.RemoveEntityFromLocation(c.Request.Context(), service.EntityRef{Kind: kind, ID: id})
		if err != nil {
			WriteError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RegisterRoutes registers the handler's routes
func (h *WarehouseHandler) RegisterRoutes(api *gin.RouterGroup) {
	warehouses := api.Group("/warehouses")
	{
		warehouses.POST("", h.CreateWarehouse)
		warehouses.GET("/:id", h.GetWarehouse)
		warehouses.POST("/:id/clear", h.ClearWarehouse)
		warehouses.DELETE("/:id", h.DeleteWarehouse)
		warehouses.POST("/:id/locations", h.AddLocation)
		warehouses.GET("/:id/locations", h.ListLocations)
		warehouses.DELETE("/:id/locations/:code", h.RemoveLocation)
	}

	api.POST("/locations/:id/occupants", h.AddOccupant)
	api.GET("/locations/:id/occupants", h.ListOccupants)
	api.DELETE("/products/:id/location", h.removeOccupant(models.LocationKindProduct))
	api.DELETE("/picklists/:id/location", h.removeOccupant(models.LocationKindPickList))
}
