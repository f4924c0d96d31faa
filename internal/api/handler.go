package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"
	"fulfillment-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderWorkflow is the order lifecycle surface exposed over HTTP
type OrderWorkflow interface {
	CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*models.OrderInfo, error)
	GetOrder(ctx context.Context, orderID int64) (*models.OrderInfo, error)
	ConfirmOrder(ctx context.Context, orderID int64) (*models.ShippingStatus, error)
	StartShipping(ctx context.Context, orderID int64) (*models.ShippingStatus, error)
	FinishDelivery(ctx context.Context, orderID int64, clientToken *int) (*models.ShippingStatus, error)
	CancelOrder(ctx context.Context, orderID int64) (*models.ShippingStatus, error)
	DeleteOrder(ctx context.Context, orderID int64) (*models.OrderInfo, error)
}

// ShipperDirectory is the shipper management surface
type ShipperDirectory interface {
	CreateShipper(ctx context.Context, req *service.ShipperRequest) (*models.Shipper, error)
	GetShipper(ctx context.Context, shipperID int64) (*models.Shipper, error)
	ListShippers(ctx context.Context) ([]models.Shipper, error)
	UpdateShipper(ctx context.Context, shipperID int64, req *service.ShipperRequest) (*models.Shipper, error)
	DeleteShipper(ctx context.Context, shipperID int64) error
}

// Catalog is the variant lookup surface
type Catalog interface {
	GetVariant(ctx context.Context, variantID int64) (*models.VariantDetail, error)
}

// Handler contains HTTP handlers
type Handler struct {
	orders   OrderWorkflow
	shippers ShipperDirectory
	catalog  Catalog
}

// NewHandler creates a new HTTP handler
func NewHandler(orders OrderWorkflow, shippers ShipperDirectory, catalog Catalog) *Handler {
	return &Handler{
		orders:   orders,
		shippers: shippers,
		catalog:  catalog,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/confirm", h.confirmOrder)
		v1.POST("/orders/:id/ship", h.startShipping)
		v1.POST("/orders/:id/deliver", h.finishDelivery)
		v1.POST("/orders/:id/cancel", h.cancelOrder)
		v1.DELETE("/orders/:id", h.deleteOrder)

		v1.GET("/variants/:id", h.getVariant)

		v1.POST("/shippers", h.createShipper)
		v1.GET("/shippers", h.listShippers)
		v1.GET("/shippers/:id", h.getShipper)
		v1.PUT("/shippers/:id", h.updateShipper)
		v1.DELETE("/shippers/:id", h.deleteShipper)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles order placement
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// confirmOrder handles the pending -> confirmed transition
func (h *Handler) confirmOrder(c *gin.Context) {
	h.transition(c, h.orders.ConfirmOrder)
}

// startShipping handles the confirmed -> shipped transition
func (h *Handler) startShipping(c *gin.Context) {
	h.transition(c, h.orders.StartShipping)
}

// finishDelivery handles the shipped -> delivered transition. The body
// carries the client's delivery token when one was issued.
func (h *Handler) finishDelivery(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Token *int `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	status, err := h.orders.FinishDelivery(c.Request.Context(), orderID, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// cancelOrder handles the -> canceled transition
func (h *Handler) cancelOrder(c *gin.Context) {
	h.transition(c, h.orders.CancelOrder)
}

// deleteOrder handles hard deletion of an order and its lines
func (h *Handler) deleteOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.orders.DeleteOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) transition(c *gin.Context, fn func(context.Context, int64) (*models.ShippingStatus, error)) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	status, err := fn(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// getVariant handles variant lookup
func (h *Handler) getVariant(c *gin.Context) {
	variantID, ok := pathID(c)
	if !ok {
		return
	}

	variant, err := h.catalog.GetVariant(c.Request.Context(), variantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, variant)
}

// createShipper handles shipper registration
func (h *Handler) createShipper(c *gin.Context) {
	var req service.ShipperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	shipper, err := h.shippers.CreateShipper(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, shipper)
}

// listShippers handles listing all shippers
func (h *Handler) listShippers(c *gin.Context) {
	shippers, err := h.shippers.ListShippers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shippers)
}

// getShipper handles shipper lookup
func (h *Handler) getShipper(c *gin.Context) {
	shipperID, ok := pathID(c)
	if !ok {
		return
	}

	shipper, err := h.shippers.GetShipper(c.Request.Context(), shipperID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shipper)
}

// updateShipper handles shipper updates
func (h *Handler) updateShipper(c *gin.Context) {
	shipperID, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ShipperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	shipper, err := h.shippers.UpdateShipper(c.Request.Context(), shipperID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shipper)
}

// deleteShipper handles shipper removal
func (h *Handler) deleteShipper(c *gin.Context) {
	shipperID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.shippers.DeleteShipper(c.Request.Context(), shipperID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var (
		orderNF   *models.OrderNotFoundError
		variantNF *models.VariantNotFoundError
		productNF *models.ProductNotFoundError
		shipperNF *models.ShipperNotFoundError
		noStock   *models.InsufficientStockError
		badToken  *models.InvalidTokenError
		badMove   *models.InvalidTransitionError
		exists    *models.AlreadyExistsError
		badInput  *models.ValidationError
	)

	switch {
	case errors.As(err, &orderNF),
		errors.As(err, &variantNF),
		errors.As(err, &productNF),
		errors.As(err, &shipperNF):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &noStock):
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"variant_id": noStock.VariantID,
			"available":  noStock.Available,
		})
	case errors.As(err, &badToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &badMove):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &exists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &badInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		util.GetLogger().Sugar().Errorw("Internal error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
