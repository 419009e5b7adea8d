package service

import "encoding/json"

// OutcomeKind tells how a payment attempt ended.
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeFailure   OutcomeKind = "failure"
	OutcomeCancelled OutcomeKind = "cancelled"
)

// PaymentOutcome is the single result of a payment attempt.
type PaymentOutcome struct {
	Kind        OutcomeKind     `json:"kind"`
	PaymentData json.RawMessage `json:"paymentData,omitempty"`
	StatusCode  int             `json:"statusCode,omitempty"`
}

func Success(paymentData json.RawMessage) PaymentOutcome {
	return PaymentOutcome{Kind: OutcomeSuccess, PaymentData: paymentData}
}

func Failure(statusCode int) PaymentOutcome {
	return PaymentOutcome{Kind: OutcomeFailure, StatusCode: statusCode}
}

func Cancelled() PaymentOutcome {
	return PaymentOutcome{Kind: OutcomeCancelled}
}
