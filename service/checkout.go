package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"checkout-service/future"
	"checkout-service/logging"
	"checkout-service/monitoring"
	"checkout-service/wallet"
)

var (
	ErrAttemptInFlight    = errors.New("a payment attempt is already in progress")
	ErrUnknownRequestCode = errors.New("unknown request code")
	ErrAttemptNotPending  = errors.New("payment attempt is not awaiting a result")
	ErrAttemptAbandoned   = errors.New("payment attempt was abandoned")
)

// AttemptState is the lifecycle state of a payment attempt.
type AttemptState string

const (
	AttemptAwaitingVendorUI AttemptState = "awaiting_vendor_ui"
	AttemptResolved         AttemptState = "resolved"
	AttemptAbandoned        AttemptState = "abandoned"
)

// Attempt is a snapshot of one payment attempt.
type Attempt struct {
	ID          uuid.UUID       `json:"id"`
	RequestCode int             `json:"requestCode"`
	Price       string          `json:"price"`
	State       AttemptState    `json:"state"`
	Outcome     *PaymentOutcome `json:"outcome,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	ResolvedAt  *time.Time      `json:"resolvedAt,omitempty"`
}

// GatewayContract is the part of PaymentGateway the checkout relies on.
type GatewayContract interface {
	CheckReadiness(ctx context.Context) *future.Future[bool]
	BeginPayment(ctx context.Context, price string, requestCode int)
	ExtractPaymentResult(env wallet.ResultEnvelope) (PaymentOutcome, error)
}

type attempt struct {
	Attempt
	result *future.Future[PaymentOutcome]
	// closed once BeginPayment has returned
	started chan struct{}
}

// Checkout drives the single checkout screen: readiness, the pay action and
// the routing of result envelopes back to their attempt. Only one attempt may
// await a result at a time.
type Checkout struct {
	tracer  trace.Tracer
	gateway GatewayContract
	now     func() time.Time

	mu       sync.Mutex
	nextCode int
	inFlight int
	attempts map[int]*attempt
}

func NewCheckout(tracer trace.Tracer, gateway GatewayContract) *Checkout {
	return &Checkout{
		tracer:   tracer,
		gateway:  gateway,
		now:      func() time.Time { return time.Now().UTC() },
		nextCode: 1,
		attempts: make(map[int]*attempt),
	}
}

// Readiness waits for the wallet readiness check.
func (c *Checkout) Readiness(ctx context.Context) (bool, error) {
	return c.gateway.CheckReadiness(ctx).Await(ctx)
}

// Pay starts a payment attempt for price. The attempt is registered before the
// gateway is called so its result can never arrive unannounced, and it is not
// resolved until BeginPayment has returned.
func (c *Checkout) Pay(ctx context.Context, price string) (Attempt, error) {
	ctx, span := c.tracer.Start(ctx, "pay")
	defer span.End()

	c.mu.Lock()
	if c.inFlight != 0 {
		code := c.inFlight
		c.mu.Unlock()
		logging.WithTraceContext(span).Warn("Payment rejected, attempt in flight", zap.Int("request_code", code))
		return Attempt{}, ErrAttemptInFlight
	}
	a := &attempt{
		Attempt: Attempt{
			ID:          uuid.New(),
			RequestCode: c.nextCode,
			Price:       price,
			State:       AttemptAwaitingVendorUI,
			StartedAt:   c.now(),
		},
		result:  future.New[PaymentOutcome](),
		started: make(chan struct{}),
	}
	c.attempts[a.RequestCode] = a
	c.inFlight = a.RequestCode
	c.nextCode++
	snapshot := a.snapshot()
	c.mu.Unlock()

	span.SetAttributes(
		attribute.String("payment.attempt_id", snapshot.ID.String()),
		attribute.Int("payment.request_code", snapshot.RequestCode),
	)

	c.gateway.BeginPayment(ctx, price, snapshot.RequestCode)
	close(a.started)
	return snapshot, nil
}

// HandleResult routes a result envelope to its attempt and resolves it.
func (c *Checkout) HandleResult(ctx context.Context, env wallet.ResultEnvelope) (Attempt, error) {
	ctx, span := c.tracer.Start(ctx, "handle_result")
	defer span.End()
	span.SetAttributes(
		attribute.Int("payment.request_code", env.RequestCode),
		attribute.String("payment.result", string(env.Result)),
	)
	logger := logging.WithTraceContext(span)

	a, err := c.pending(env.RequestCode)
	if err != nil {
		logger.Warn("Result envelope ignored", zap.Int("request_code", env.RequestCode), zap.Error(err))
		return Attempt{}, err
	}
	select {
	case <-a.started:
	case <-ctx.Done():
		return Attempt{}, ctx.Err()
	}

	outcome, err := c.gateway.ExtractPaymentResult(env)
	if err != nil {
		logger.Error("Failed to extract payment result", zap.Int("request_code", env.RequestCode), zap.Error(err))
		return Attempt{}, err
	}

	return c.resolve(ctx, logger, env.RequestCode, outcome)
}

func (c *Checkout) resolve(ctx context.Context, logger *zap.Logger, requestCode int, outcome PaymentOutcome) (Attempt, error) {
	c.mu.Lock()
	a, err := c.pendingLocked(requestCode)
	if err != nil {
		c.mu.Unlock()
		return Attempt{}, err
	}
	resolvedAt := c.now()
	a.State = AttemptResolved
	a.Outcome = &outcome
	a.ResolvedAt = &resolvedAt
	c.release(a.RequestCode)
	a.result.Resolve(outcome)
	snapshot := a.snapshot()
	c.mu.Unlock()

	monitoring.PaymentCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", string(outcome.Kind))),
	)
	logger.Info("Payment attempt resolved",
		zap.String("attempt_id", snapshot.ID.String()),
		zap.Int("request_code", snapshot.RequestCode),
		zap.String("outcome", string(outcome.Kind)),
		zap.Int("status_code", outcome.StatusCode),
	)

	return snapshot, nil
}

// Abandon gives up on an attempt whose result will never be redelivered. No
// outcome is recorded and the pay action becomes available again.
func (c *Checkout) Abandon(ctx context.Context, requestCode int) (Attempt, error) {
	c.mu.Lock()
	a, err := c.pendingLocked(requestCode)
	if err != nil {
		c.mu.Unlock()
		return Attempt{}, err
	}
	abandonedAt := c.now()
	a.State = AttemptAbandoned
	a.ResolvedAt = &abandonedAt
	c.release(requestCode)
	a.result.Reject(ErrAttemptAbandoned)
	snapshot := a.snapshot()
	c.mu.Unlock()

	monitoring.PaymentCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", string(AttemptAbandoned))),
	)
	logging.Info("Payment attempt abandoned",
		zap.String("attempt_id", snapshot.ID.String()),
		zap.Int("request_code", requestCode),
	)

	return snapshot, nil
}

// Attempt returns the current state of the attempt started with requestCode.
func (c *Checkout) Attempt(requestCode int) (Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.attempts[requestCode]
	if !ok {
		return Attempt{}, ErrUnknownRequestCode
	}
	return a.snapshot(), nil
}

// Await blocks until the attempt has an outcome, is abandoned, or ctx is done.
func (c *Checkout) Await(ctx context.Context, requestCode int) (PaymentOutcome, error) {
	c.mu.Lock()
	a, ok := c.attempts[requestCode]
	c.mu.Unlock()
	if !ok {
		return PaymentOutcome{}, ErrUnknownRequestCode
	}
	return a.result.Await(ctx)
}

// Run handles redelivered envelopes until ctx is done or envelopes is closed.
// Each attempt gets exactly one envelope on this path, so a malformed one
// resolves the attempt as an INTERNAL_ERROR failure instead of leaving it
// awaiting.
func (c *Checkout) Run(ctx context.Context, envelopes <-chan wallet.ResultEnvelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			// failures are logged by HandleResult
			if _, err := c.HandleResult(ctx, env); errors.Is(err, ErrMalformedResponse) {
				_, _ = c.resolve(ctx, logging.GetLogger(), env.RequestCode, Failure(wallet.StatusInternalError))
			}
		}
	}
}

func (c *Checkout) pending(requestCode int) (*attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked(requestCode)
}

func (c *Checkout) pendingLocked(requestCode int) (*attempt, error) {
	a, ok := c.attempts[requestCode]
	if !ok {
		return nil, ErrUnknownRequestCode
	}
	if a.State != AttemptAwaitingVendorUI {
		return nil, ErrAttemptNotPending
	}
	return a, nil
}

func (c *Checkout) release(requestCode int) {
	if c.inFlight == requestCode {
		c.inFlight = 0
	}
}

func (a *attempt) snapshot() Attempt {
	s := a.Attempt
	if a.Outcome != nil {
		o := *a.Outcome
		s.Outcome = &o
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		s.ResolvedAt = &t
	}
	return s
}
