package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"checkout-service/models"
	"checkout-service/service"
	"checkout-service/wallet"
)

type checkoutMock struct {
	mock.Mock
	CheckoutService
}

func (m *checkoutMock) Readiness(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *checkoutMock) Pay(ctx context.Context, price string) (service.Attempt, error) {
	args := m.Called(ctx, price)
	return args.Get(0).(service.Attempt), args.Error(1)
}

func (m *checkoutMock) HandleResult(ctx context.Context, env wallet.ResultEnvelope) (service.Attempt, error) {
	args := m.Called(ctx, env)
	return args.Get(0).(service.Attempt), args.Error(1)
}

func (m *checkoutMock) Abandon(ctx context.Context, requestCode int) (service.Attempt, error) {
	args := m.Called(ctx, requestCode)
	return args.Get(0).(service.Attempt), args.Error(1)
}

func (m *checkoutMock) Attempt(requestCode int) (service.Attempt, error) {
	args := m.Called(requestCode)
	return args.Get(0).(service.Attempt), args.Error(1)
}

func (m *checkoutMock) Await(ctx context.Context, requestCode int) (service.PaymentOutcome, error) {
	args := m.Called(ctx, requestCode)
	return args.Get(0).(service.PaymentOutcome), args.Error(1)
}

func newRouter(checkout CheckoutService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewCheckoutHandler(checkout).Register(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	rec := do(newRouter(new(checkoutMock)), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	var tests = []struct {
		name     string
		ready    bool
		err      error
		status   int
		expected models.ReadinessResponse
	}{
		{name: "ready", ready: true, status: http.StatusOK, expected: models.ReadinessResponse{Ready: true}},
		{
			name:     "not ready",
			status:   http.StatusOK,
			expected: models.ReadinessResponse{Ready: false, Dialog: &models.Dialog{Title: "Error", Message: notReadyMessage}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			checkout := new(checkoutMock)
			checkout.On("Readiness", mock.Anything).Return(tt.ready, tt.err)

			rec := do(newRouter(checkout), http.MethodGet, "/api/checkout/readiness", "")

			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.expected, decode[models.ReadinessResponse](t, rec))
		})
	}
}

func TestReadiness_VendorError(t *testing.T) {
	checkout := new(checkoutMock)
	checkout.On("Readiness", mock.Anything).Return(false, wallet.NewAPIError(wallet.StatusDeveloperError, "DEVELOPER_ERROR"))

	rec := do(newRouter(checkout), http.MethodGet, "/api/checkout/readiness", "")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	require.NotNil(t, resp.Dialog)
	assert.Equal(t, "Error", resp.Dialog.Title)
	assert.Equal(t, "10: DEVELOPER_ERROR", resp.Dialog.Message)
}

func TestPay(t *testing.T) {
	attempt := service.Attempt{ID: uuid.New(), RequestCode: 1, Price: "10.00", State: service.AttemptAwaitingVendorUI}

	var tests = []struct {
		name   string
		body   string
		setup  func(m *checkoutMock)
		status int
	}{
		{
			name: "accepted",
			body: `{"price":"10.00"}`,
			setup: func(m *checkoutMock) {
				m.On("Pay", mock.Anything, "10.00").Return(attempt, nil)
			},
			status: http.StatusAccepted,
		},
		{name: "missing price", body: `{}`, status: http.StatusBadRequest},
		{name: "not a number", body: `{"price":"ten"}`, status: http.StatusBadRequest},
		{name: "invalid json", body: `{`, status: http.StatusBadRequest},
		{
			name: "in flight",
			body: `{"price":"2"}`,
			setup: func(m *checkoutMock) {
				m.On("Pay", mock.Anything, "2").Return(service.Attempt{}, service.ErrAttemptInFlight)
			},
			status: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			checkout := new(checkoutMock)
			if tt.setup != nil {
				tt.setup(checkout)
			}

			rec := do(newRouter(checkout), http.MethodPost, "/api/checkout/payments", tt.body)

			require.Equal(t, tt.status, rec.Code)
			if tt.setup == nil {
				checkout.AssertNotCalled(t, "Pay", mock.Anything, mock.Anything)
			}
			if tt.status == http.StatusAccepted {
				resp := decode[models.AttemptResponse](t, rec)
				assert.Equal(t, attempt.ID, resp.Attempt.ID)
				assert.Nil(t, resp.Dialog)
			}
		})
	}
}

func TestResult(t *testing.T) {
	payload := json.RawMessage(`{"token":"abc"}`)
	success := service.Success(payload)
	failure := service.Failure(3)

	var tests = []struct {
		name     string
		body     string
		env      wallet.ResultEnvelope
		attempt  service.Attempt
		err      error
		status   int
		expected *models.Dialog
	}{
		{
			name:     "success",
			body:     `{"requestCode":1,"result":"ok","data":{"token":"abc"}}`,
			env:      wallet.ResultEnvelope{RequestCode: 1, Result: wallet.ResultOK, Data: payload},
			attempt:  service.Attempt{RequestCode: 1, State: service.AttemptResolved, Outcome: &success},
			status:   http.StatusOK,
			expected: &models.Dialog{Title: "Success", Message: `Payment successful: {"token":"abc"}`},
		},
		{
			name:     "vendor error",
			body:     `{"requestCode":1,"result":"vendor-error","data":{"statusCode":3}}`,
			env:      wallet.ResultEnvelope{RequestCode: 1, Result: wallet.ResultVendorError, Data: json.RawMessage(`{"statusCode":3}`)},
			attempt:  service.Attempt{RequestCode: 1, State: service.AttemptResolved, Outcome: &failure},
			status:   http.StatusOK,
			expected: &models.Dialog{Title: "Error", Message: "3"},
		},
		{
			name:   "unknown request code",
			body:   `{"requestCode":9,"result":"ok","data":{}}`,
			env:    wallet.ResultEnvelope{RequestCode: 9, Result: wallet.ResultOK, Data: json.RawMessage(`{}`)},
			err:    service.ErrUnknownRequestCode,
			status: http.StatusNotFound,
		},
		{
			name:   "already resolved",
			body:   `{"requestCode":1,"result":"cancelled"}`,
			env:    wallet.ResultEnvelope{RequestCode: 1, Result: wallet.ResultCancelled},
			err:    service.ErrAttemptNotPending,
			status: http.StatusConflict,
		},
		{
			name:   "malformed",
			body:   `{"requestCode":1,"result":"ok","data":[1]}`,
			env:    wallet.ResultEnvelope{RequestCode: 1, Result: wallet.ResultOK, Data: json.RawMessage(`[1]`)},
			err:    service.ErrMalformedResponse,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			checkout := new(checkoutMock)
			checkout.On("HandleResult", mock.Anything, mock.MatchedBy(func(env wallet.ResultEnvelope) bool {
				if env.RequestCode != tt.env.RequestCode || env.Result != tt.env.Result {
					return false
				}
				if tt.env.Data == nil {
					return env.Data == nil
				}
				return bytes.Equal(compact(env.Data), compact(tt.env.Data))
			})).Return(tt.attempt, tt.err)

			rec := do(newRouter(checkout), http.MethodPost, "/api/checkout/results", tt.body)

			require.Equal(t, tt.status, rec.Code)
			checkout.AssertExpectations(t)
			if tt.err != nil {
				return
			}
			resp := decode[models.AttemptResponse](t, rec)
			assert.Equal(t, tt.expected, resp.Dialog)
		})
	}
}

func TestResult_InvalidEnvelope(t *testing.T) {
	checkout := new(checkoutMock)
	r := newRouter(checkout)

	for _, body := range []string{`{"result":"ok"}`, `{"requestCode":-1,"result":"ok"}`, `{"requestCode":1}`} {
		rec := do(r, http.MethodPost, "/api/checkout/results", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	checkout.AssertNotCalled(t, "HandleResult", mock.Anything, mock.Anything)
}

func TestGetAttempt(t *testing.T) {
	failure := service.Failure(3)
	resolved := service.Attempt{RequestCode: 1, State: service.AttemptResolved, Outcome: &failure}

	checkout := new(checkoutMock)
	checkout.On("Await", mock.Anything, 1).Return(failure, nil).Once()
	checkout.On("Attempt", 1).Return(resolved, nil)
	checkout.On("Attempt", 2).Return(service.Attempt{}, service.ErrUnknownRequestCode)
	r := newRouter(checkout)

	rec := do(r, http.MethodGet, "/api/checkout/payments/1?wait=1s", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.AttemptResponse](t, rec)
	assert.Equal(t, service.AttemptResolved, resp.Attempt.State)
	assert.Equal(t, &models.Dialog{Title: "Error", Message: "3"}, resp.Dialog)

	rec = do(r, http.MethodGet, "/api/checkout/payments/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	checkout.AssertNumberOfCalls(t, "Await", 1)

	rec = do(r, http.MethodGet, "/api/checkout/payments/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodGet, "/api/checkout/payments/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/checkout/payments/1?wait=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAbandon(t *testing.T) {
	abandoned := service.Attempt{RequestCode: 1, State: service.AttemptAbandoned}

	checkout := new(checkoutMock)
	checkout.On("Abandon", mock.Anything, 1).Return(abandoned, nil)
	checkout.On("Abandon", mock.Anything, 2).Return(service.Attempt{}, service.ErrAttemptNotPending)
	r := newRouter(checkout)

	rec := do(r, http.MethodDelete, "/api/checkout/payments/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.AttemptResponse](t, rec)
	assert.Equal(t, service.AttemptAbandoned, resp.Attempt.State)
	assert.Nil(t, resp.Dialog)

	rec = do(r, http.MethodDelete, "/api/checkout/payments/2", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
