package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sweetshop-backend/internal/delivery"
	"sweetshop-backend/internal/service"
	"sweetshop-backend/internal/store"
	"sweetshop-backend/internal/util"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
	statusService  *service.StatusService
	resolver       *delivery.Resolver
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orderService *service.OrderService,
	paymentService *service.PaymentService,
	statusService *service.StatusService,
	resolver *delivery.Resolver,
) *Handler {
	return &Handler{
		orderService:   orderService,
		paymentService: paymentService,
		statusService:  statusService,
		resolver:       resolver,
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
		v1.GET("/delivery/check", h.checkDelivery)
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:orderNumber", h.getOrder)
		v1.PUT("/orders/:orderNumber", h.updateOrderStatus)
		v1.POST("/payment/verify", h.verifyPayment)
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

// checkDelivery answers pincode serviceability quotes
func (h *Handler) checkDelivery(c *gin.Context) {
	pincode := c.Query("pincode")
	amount, err := strconv.ParseInt(c.DefaultQuery("amount", "0"), 10, 64)
	if err != nil || amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid amount",
		})
		return
	}

	quote := h.resolver.Quote(pincode, amount)
	c.JSON(http.StatusOK, quote)
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var draft service.OrderDraft

	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if draft.IdempotencyKey == "" {
		draft.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &draft)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Order validation failed",
				"field":   verr.Field,
				"details": verr.Message,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// getOrder handles get order by order number
func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load order",
		})
		return
	}

	c.JSON(http.StatusOK, order)
}

// verifyPaymentRequest is the gateway callback payload.
type verifyPaymentRequest struct {
	OrderID         string `json:"orderId" binding:"required"`
	PaymentID       string `json:"paymentId" binding:"required"`
	Signature       string `json:"signature" binding:"required"`
	RazorpayOrderID string `json:"razorpayOrderId" binding:"required"`
}

// verifyPayment reconciles a payment gateway callback
func (h *Handler) verifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.paymentService.VerifyAndSettle(
		c.Request.Context(), req.OrderID, req.PaymentID, req.Signature, req.RazorpayOrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationFailed):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Payment could not be confirmed, contact support",
			})
		case errors.Is(err, store.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to verify payment",
			})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// updateStatusRequest is the admin status-change payload.
type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateOrderStatus applies an admin status transition
func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.statusService.Transition(c.Request.Context(), c.Param("orderNumber"), req.Status)
	if err != nil {
		var verr *service.ValidationError
		var terr *service.TransitionError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status",
				"field": verr.Field,
			})
		case errors.As(err, &terr):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Status transition not allowed",
				"from":  terr.From,
				"to":    terr.To,
			})
		case errors.Is(err, store.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update order status",
			})
		}
		return
	}

	c.JSON(http.StatusOK, order)
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
