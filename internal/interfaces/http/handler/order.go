package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orderapp "github.com/unistore/backend/internal/application/order"
	"github.com/unistore/backend/internal/interfaces/http/dto"
)

// OrderHandler handles the merged order history endpoints
type OrderHandler struct {
	BaseHandler
	service *orderapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *orderapp.Service) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// List fetches every storefront's order history once and returns the
// merged result. Unreachable storefronts surface as warnings with
// whatever partial history the rest provided.
func (h *OrderHandler) List(c *gin.Context) {
	result := h.service.FetchOnce(requestContext(c))
	h.SuccessWithWarnings(c, gin.H{
		"orders":         result.Orders,
		"count":          len(result.Orders),
		"all_sources_ok": result.AllSourcesOK,
	}, result.Warnings)
}

// StartPoll starts a background polling run that refetches the order
// feeds until every source answers or the deadline passes. Starting a
// run cancels any run already in flight.
func (h *OrderHandler) StartPoll(c *gin.Context) {
	runID := h.service.StartPoll(requestContext(c))
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{
		"run_id": runID,
	}))
}

// GetPoll returns the current polling snapshot. The last merged result
// stays readable in every terminal state.
func (h *OrderHandler) GetPoll(c *gin.Context) {
	h.Success(c, h.service.Snapshot())
}

// CancelPoll stops the in-flight polling run, keeping its last snapshot
func (h *OrderHandler) CancelPoll(c *gin.Context) {
	h.service.CancelPoll()
	h.Success(c, h.service.Snapshot())
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.List)
		orders.POST("/poll", h.StartPoll)
		orders.GET("/poll", h.GetPoll)
		orders.DELETE("/poll", h.CancelPoll)
	}
}
