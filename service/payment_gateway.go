package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"checkout-service/config"
	"checkout-service/future"
	"checkout-service/logging"
	"checkout-service/monitoring"
	"checkout-service/wallet"
	"checkout-service/walletrequest"
)

// ErrMalformedResponse is returned when a result envelope does not carry the expected payload.
var ErrMalformedResponse = errors.New("malformed payment response")

// Resolver hands a load-payment-data task to the host, which presents the
// payment sheet and later redelivers the result under requestCode.
type Resolver interface {
	ResolveTask(task *wallet.Task[json.RawMessage], requestCode int)
}

// PaymentGateway bridges the wallet client into the operations used by the checkout.
type PaymentGateway struct {
	tracer   trace.Tracer
	merchant config.Merchant
	client   wallet.Client
	resolver Resolver
}

// NewPaymentGateway validates merchant once so that building requests cannot fail later.
func NewPaymentGateway(tracer trace.Tracer, merchant config.Merchant, client wallet.Client, resolver Resolver) (*PaymentGateway, error) {
	if err := merchant.Validate(); err != nil {
		return nil, err
	}
	return &PaymentGateway{
		tracer:   tracer,
		merchant: config.NewMerchant(merchant),
		client:   client,
		resolver: resolver,
	}, nil
}

// CheckReadiness asks the wallet provider whether a payment can be made. The
// returned future resolves exactly once: with false when the provider returns
// no result, or with the provider's error.
func (g *PaymentGateway) CheckReadiness(ctx context.Context) *future.Future[bool] {
	ctx, span := g.tracer.Start(ctx, "check_readiness")
	result := future.New[bool]()

	raw, err := g.readinessRequest()
	if err != nil {
		g.readinessFailed(ctx, span, err)
		result.Reject(err)
		span.End()
		return result
	}

	g.client.IsReadyToPay(ctx, raw).AddOnCompleteListener(func(ready *bool, err error) {
		defer span.End()
		if err != nil {
			g.readinessFailed(ctx, span, err)
			result.Reject(err)
			return
		}

		isReady := ready != nil && *ready
		span.SetAttributes(attribute.Bool("wallet.ready", isReady))
		monitoring.ReadinessChecks.Add(ctx, 1,
			metric.WithAttributes(attribute.String("result", readinessLabel(isReady))),
		)
		result.Resolve(isReady)
	})

	return result
}

// BeginPayment starts a payment attempt for price and returns immediately.
// The outcome reaches the caller later as a result envelope tagged with requestCode.
func (g *PaymentGateway) BeginPayment(ctx context.Context, price string, requestCode int) {
	ctx, span := g.tracer.Start(ctx, "begin_payment")
	defer span.End()

	span.SetAttributes(
		attribute.String("payment.price", price),
		attribute.Int("payment.request_code", requestCode),
	)

	raw, err := g.paymentDataRequest(price)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.WithTraceContext(span).Error("Failed to build payment data request",
			zap.Error(err),
			zap.Int("request_code", requestCode),
		)
		g.resolver.ResolveTask(wallet.FailedTask[json.RawMessage](
			wallet.NewAPIError(wallet.StatusDeveloperError, err.Error()),
		), requestCode)
		return
	}

	// The payment sheet outlives the caller's request.
	task := g.client.LoadPaymentData(context.WithoutCancel(ctx), raw)
	g.resolver.ResolveTask(task, requestCode)

	logging.WithTraceContext(span).Info("Payment attempt started",
		zap.String("price", price),
		zap.Int("request_code", requestCode),
	)
}

// ExtractPaymentResult reads the outcome carried by a result envelope.
func (g *PaymentGateway) ExtractPaymentResult(env wallet.ResultEnvelope) (PaymentOutcome, error) {
	switch env.Result {
	case wallet.ResultOK:
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload == nil {
			return PaymentOutcome{}, fmt.Errorf("%w: payment data is not a JSON object", ErrMalformedResponse)
		}
		return Success(bytes.Clone(env.Data)), nil

	case wallet.ResultVendorError:
		var status struct {
			StatusCode *int `json:"statusCode"`
		}
		if err := json.Unmarshal(env.Data, &status); err != nil || status.StatusCode == nil {
			return PaymentOutcome{}, fmt.Errorf("%w: missing status code", ErrMalformedResponse)
		}
		return Failure(*status.StatusCode), nil

	default:
		return Cancelled(), nil
	}
}

func (g *PaymentGateway) readinessRequest() ([]byte, error) {
	query, err := walletrequest.BuildReadinessQuery(g.merchant)
	if err != nil {
		return nil, err
	}
	return walletrequest.Marshal(query)
}

func (g *PaymentGateway) paymentDataRequest(price string) ([]byte, error) {
	req, err := walletrequest.BuildPaymentDataRequest(g.merchant, price)
	if err != nil {
		return nil, err
	}
	return walletrequest.Marshal(req)
}

func (g *PaymentGateway) readinessFailed(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	fields := []zap.Field{zap.Error(err)}
	var apiErr *wallet.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.Int("status_code", apiErr.StatusCode))
	}
	logging.WithTraceContext(span).Error("Readiness check failed", fields...)

	monitoring.ReadinessChecks.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", "error")),
	)
}

func readinessLabel(ready bool) string {
	if ready {
		return "ready"
	}
	return "not_ready"
}
