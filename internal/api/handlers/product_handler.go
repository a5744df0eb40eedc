package handlers

import (
	"net/http"

	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	products service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// QuantityRequest sets a product's stock level
type QuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *ProductHandler) AddProduct(c *gin.Context) {
	warehouseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.AddProductRequest
	if !bindJSON(c, &req) {
		return
	}
	if t, ok := models.ProductTypeFromString(string(req.Type)); ok {
		req.Type = t
	}

	product, err := h.products.AddProduct(c.Request.Context(), warehouseID, req)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	warehouseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	products, err := h.products.ListProducts(c.Request.Context(), warehouseID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	warehouseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), warehouseID, c.Param("name"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateQuantity sets the stock level and returns the recomputed product
func (h *ProductHandler) UpdateQuantity(c *gin.Context) {
	warehouseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req QuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.UpdateQuantity(c.Request.Context(), warehouseID, c.Param("name"), *req.Quantity)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeactivateProduct soft-deletes the product
func (h *ProductHandler) DeactivateProduct(c *gin.Context) {
	warehouseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.products.DeactivateProduct(c.Request.Context(), warehouseID, c.Param("name")); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the handler's routes
func (h *ProductHandler) RegisterRoutes(api *gin.RouterGroup) {
	products := api.Group("/warehouses/:id/products")
	{
		products.POST("", h.AddProduct)
		products.GET("", h.ListProducts)
		products.GET("/:name", h.GetProduct)
		products.PATCH("/:name/quantity", h.UpdateQuantity)
		products.DELETE("/:name", h.DeactivateProduct)
	}
}
