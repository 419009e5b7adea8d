package service

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"checkout-service/future"
	"checkout-service/wallet"
)

type ClientMock struct {
	mock.Mock
	wallet.Client
}

func (m *ClientMock) IsReadyToPay(ctx context.Context, request []byte) *wallet.Task[*bool] {
	args := m.Called(ctx, request)
	return args.Get(0).(*wallet.Task[*bool])
}

func (m *ClientMock) LoadPaymentData(ctx context.Context, request []byte) *wallet.Task[json.RawMessage] {
	args := m.Called(ctx, request)
	return args.Get(0).(*wallet.Task[json.RawMessage])
}

type ResolverMock struct {
	mock.Mock
	Resolver
}

func (m *ResolverMock) ResolveTask(task *wallet.Task[json.RawMessage], requestCode int) {
	m.Called(task, requestCode)
}

type GatewayMock struct {
	mock.Mock
	GatewayContract
}

func (m *GatewayMock) CheckReadiness(ctx context.Context) *future.Future[bool] {
	args := m.Called(ctx)
	return args.Get(0).(*future.Future[bool])
}

func (m *GatewayMock) BeginPayment(ctx context.Context, price string, requestCode int) {
	m.Called(ctx, price, requestCode)
}

func (m *GatewayMock) ExtractPaymentResult(env wallet.ResultEnvelope) (PaymentOutcome, error) {
	args := m.Called(env)
	return args.Get(0).(PaymentOutcome), args.Error(1)
}
