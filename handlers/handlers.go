package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"checkout-service/logging"
	"checkout-service/models"
	"checkout-service/service"
	"checkout-service/wallet"
)

const maxWait = 30 * time.Second

// CheckoutService is the checkout behaviour the handlers expose.
type CheckoutService interface {
	Readiness(ctx context.Context) (bool, error)
	Pay(ctx context.Context, price string) (service.Attempt, error)
	HandleResult(ctx context.Context, env wallet.ResultEnvelope) (service.Attempt, error)
	Abandon(ctx context.Context, requestCode int) (service.Attempt, error)
	Attempt(requestCode int) (service.Attempt, error)
	Await(ctx context.Context, requestCode int) (service.PaymentOutcome, error)
}

// CheckoutHandler handles HTTP requests for the checkout screen
type CheckoutHandler struct {
	checkout CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
	}
}

// Register mounts the checkout routes on r
func (h *CheckoutHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api/checkout")
	api.GET("/readiness", h.Readiness)
	api.POST("/payments", h.Pay)
	api.GET("/payments/:code", h.GetAttempt)
	api.DELETE("/payments/:code", h.Abandon)
	api.POST("/results", h.Result)
}

// Readiness reports whether the wallet can pay
func (h *CheckoutHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	ready, err := h.checkout.Readiness(ctx)
	if err != nil {
		logging.WithTraceContext(trace.SpanFromContext(ctx)).Error("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error(), Dialog: errorDialog(err.Error())})
		return
	}

	resp := models.ReadinessResponse{Ready: ready}
	if !ready {
		resp.Dialog = errorDialog(notReadyMessage)
	}
	c.JSON(http.StatusOK, resp)
}

// Pay starts a payment attempt
func (h *CheckoutHandler) Pay(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	// The pay action is only offered for prices that read as a number.
	if _, err := strconv.ParseFloat(req.Price, 64); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "price must be a number"})
		return
	}

	attempt, err := h.checkout.Pay(ctx, req.Price)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrAttemptInFlight) {
			status = http.StatusConflict
		}
		c.JSON(status, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, models.AttemptResponse{Attempt: attempt})
}

// Result accepts a result envelope redelivered by the host
func (h *CheckoutHandler) Result(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	attempt, err := h.checkout.HandleResult(ctx, wallet.ResultEnvelope{
		RequestCode: req.RequestCode,
		Result:      wallet.ResultStatus(req.Result),
		Data:        req.Data,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AttemptResponse{Attempt: attempt, Dialog: outcomeDialog(attempt)})
}

// GetAttempt returns an attempt, optionally waiting up to ?wait for its outcome
func (h *CheckoutHandler) GetAttempt(c *gin.Context) {
	code, ok := requestCode(c)
	if !ok {
		return
	}

	if raw := c.Query("wait"); raw != "" {
		wait, err := time.ParseDuration(raw)
		if err != nil || wait < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid wait duration"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), min(wait, maxWait))
		defer cancel()
		// The attempt is read back below whatever the wait ended with.
		_, _ = h.checkout.Await(ctx, code)
	}

	attempt, err := h.checkout.Attempt(code)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AttemptResponse{Attempt: attempt, Dialog: outcomeDialog(attempt)})
}

// Abandon gives up on an attempt that will never receive a result
func (h *CheckoutHandler) Abandon(c *gin.Context) {
	code, ok := requestCode(c)
	if !ok {
		return
	}

	attempt, err := h.checkout.Abandon(c.Request.Context(), code)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AttemptResponse{Attempt: attempt})
}

// HealthCheck handles health check requests
func (h *CheckoutHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *CheckoutHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnknownRequestCode):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAttemptNotPending):
		status = http.StatusConflict
	case errors.Is(err, service.ErrMalformedResponse):
		status = http.StatusBadRequest
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error(), Dialog: errorDialog(err.Error())})
}

func requestCode(c *gin.Context) (int, bool) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request code"})
		return 0, false
	}
	return code, true
}
