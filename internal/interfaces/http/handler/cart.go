package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartapp "github.com/unistore/backend/internal/application/cart"
	"github.com/unistore/backend/internal/domain/cart"
	"github.com/unistore/backend/internal/domain/catalog"
	"github.com/unistore/backend/internal/domain/source"
	"github.com/unistore/backend/internal/interfaces/http/dto"
)

// CartHandler handles the unified cart endpoints
type CartHandler struct {
	BaseHandler
	reconciler *cartapp.Reconciler
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(reconciler *cartapp.Reconciler) *CartHandler {
	return &CartHandler{
		reconciler: reconciler,
	}
}

// AddItemRequest is the payload for adding a raw catalog row to the cart.
// The row travels back from the client exactly as the catalog endpoints
// served it; normalization happens server-side on add.
type AddItemRequest struct {
	Source   string      `json:"source" binding:"required"`
	Table    string      `json:"table" binding:"required"`
	RowIndex int         `json:"row_index"`
	Row      catalog.Row `json:"row" binding:"required"`
}

// UpdateQuantityRequest nudges a cart line by a signed delta
type UpdateQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// CartResponse is the unified cart: its lines plus the decimal total.
type CartResponse struct {
	Items []cart.Item `json:"items"`
	Total string      `json:"total"`
	Count int         `json:"count"`
}

func (h *CartHandler) cartData() CartResponse {
	items := h.reconciler.Items()
	return CartResponse{
		Items: items,
		Total: h.reconciler.Total(),
		Count: len(items),
	}
}

// Get returns the current in-memory cart
func (h *CartHandler) Get(c *gin.Context) {
	h.Success(c, h.cartData())
}

// AddItem normalizes a catalog row into a cart line and syncs the add to
// the owning storefront. Sync failures degrade to warnings so the local
// cart stays authoritative.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	item, warnings, err := h.reconciler.AddToCart(requestContext(c), req.Row, req.RowIndex, source.ID(req.Source), req.Table)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSuccessResponseWithWarnings(gin.H{
		"item": item,
		"cart": h.cartData(),
	}, warnings))
}

// UpdateQuantity applies a signed delta to a cart line. Reaching zero
// removes the line locally and syncs a removal remotely.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	item, warnings, err := h.reconciler.UpdateQuantity(requestContext(c), c.Param("key"), req.Delta)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithWarnings(c, gin.H{
		"item": item,
		"cart": h.cartData(),
	}, warnings)
}

// RemoveItem drops a cart line and syncs the removal remotely
func (h *CartHandler) RemoveItem(c *gin.Context) {
	warnings, err := h.reconciler.RemoveFromCart(requestContext(c), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, h.cartData(), warnings)
}

// Refresh replaces the local cart with the merged remote carts
func (h *CartHandler) Refresh(c *gin.Context) {
	items, warnings := h.reconciler.RefreshRemoteCart(requestContext(c))
	h.SuccessWithWarnings(c, CartResponse{
		Items: items,
		Total: h.reconciler.Total(),
		Count: len(items),
	}, warnings)
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.Get)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:key", h.UpdateQuantity)
		cart.DELETE("/items/:key", h.RemoveItem)
		cart.POST("/refresh", h.Refresh)
	}
}
