package handlers

import (
	"net/http"
	"strconv"

	"example.com/backstage/services/picking/internal/service"

	"github.com/gin-gonic/gin"
)

// CarrierHandler handles carrier-related HTTP requests
type CarrierHandler struct {
	carriers service.CarrierService
}

// NewCarrierHandler creates a new carrier handler
func NewCarrierHandler(carriers service.CarrierService) *CarrierHandler {
	return &CarrierHandler{carriers: carriers}
}

func (h *CarrierHandler) CreateCarrier(c *gin.Context) {
	var req service.CreateCarrierRequest
	if !bindJSON(c, &req) {
		return
	}

	carrier, err := h.carriers.CreateCarrier(c.Request.Context(), req)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, carrier)
}

func (h *CarrierHandler) ListCarriers(c *gin.Context) {
	carriers, err := h.carriers.ListCarriers(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, carriers)
}

func (h *CarrierHandler) GetCarrier(c *gin.Context) {
	identifier, ok := carrierIdentifier(c)
	if !ok {
		return
	}

	carrier, err := h.carriers.GetCarrier(c.Request.Context(), identifier)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, carrier)
}

// DeleteCarrier unbinds the carrier from its pick lists and removes it
func (h *CarrierHandler) DeleteCarrier(c *gin.Context) {
	identifier, ok := carrierIdentifier(c)
	if !ok {
		return
	}
	if err := h.carriers.DeleteCarrier(c.Request.Context(), identifier); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func carrierIdentifier(c *gin.Context) (int, bool) {
	identifier, err := strconv.Atoi(c.Param("identifier"))
	if err != nil {
		WriteError(c, NewValidationError("invalid identifier: must be an integer"))
		return 0, false
	}
	return identifier, true
}

// RegisterRoutes registers the handler's routes
func (h *CarrierHandler) RegisterRoutes(api *gin.RouterGroup) {
	carriers := api.Group("/carriers")
	{
		carriers.POST("", h.CreateCarrier)
		carriers.GET("", h.ListCarriers)
		carriers.GET("/:identifier", h.GetCarrier)
		carriers.DELETE("/:identifier", h.DeleteCarrier)
	}
}
