package main

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"checkout-service/config"
	"checkout-service/handlers"
	"checkout-service/logging"
	"checkout-service/monitoring"
	"checkout-service/service"
	"checkout-service/wallet"
)

const resultBuffer = 16

func main() {
	// Initialize structured logging
	if err := logging.InitLogger(); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logging.Sync()
	defer func() {
		if err := logging.Shutdown(context.Background()); err != nil {
			logging.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	cfg := config.Load()

	tp, tracer, err := monitoring.InitTracer(cfg.ServiceName, cfg.OTELEndpoint)
	if err != nil {
		logging.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logging.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	mp, _, err := monitoring.InitMeter(cfg.ServiceName, cfg.OTELEndpoint)
	if err != nil {
		logging.Fatal("Failed to initialize meter", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logging.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Wallet provider and host result redelivery
	walletClient := wallet.NewHTTPClient(cfg.WalletProviderURL, string(cfg.Merchant.Environment), cfg.WalletTimeout)
	resolver := wallet.NewAutoResolver(resultBuffer)
	defer resolver.Close()

	gateway, err := service.NewPaymentGateway(tracer, cfg.Merchant, walletClient, resolver)
	if err != nil {
		logging.Fatal("Invalid merchant configuration", zap.Error(err))
	}
	checkout := service.NewCheckout(tracer, gateway)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go checkout.Run(ctx, resolver.Results())

	checkoutHandler := handlers.NewCheckoutHandler(checkout)

	r := gin.Default()
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMetricsMiddleware())

	checkoutHandler.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logging.Info("Checkout service starting",
		zap.String("port", cfg.Port),
		zap.String("wallet_environment", string(cfg.Merchant.Environment)),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		logging.Fatal("Failed to start server", zap.Error(err))
	}
}

// httpMetricsMiddleware records HTTP request metrics
func httpMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := float64(time.Since(start).Milliseconds())

		monitoring.HTTPServerDuration.Record(c.Request.Context(), duration,
			metric.WithAttributes(
				attribute.String("http_method", c.Request.Method),
				attribute.String("http_route", c.FullPath()),
				attribute.String("http_status_code", strconv.Itoa(c.Writer.Status())),
			),
		)
	}
}
