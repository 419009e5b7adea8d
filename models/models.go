package models

import (
	"encoding/json"

	"checkout-service/service"
)

// PaymentRequest starts a payment attempt for the price typed by the user
type PaymentRequest struct {
	Price string `json:"price" binding:"required"`
}

// ResultRequest is a result envelope redelivered by the host
type ResultRequest struct {
	RequestCode int             `json:"requestCode" binding:"required,gt=0"`
	Result      string          `json:"result" binding:"required"`
	Data        json.RawMessage `json:"data"`
}

// Dialog is the title and message shown to the user
type Dialog struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ReadinessResponse reports whether the wallet can be used for payment
type ReadinessResponse struct {
	Ready  bool    `json:"ready"`
	Dialog *Dialog `json:"dialog,omitempty"`
}

// AttemptResponse describes a payment attempt and, once resolved, its dialog
type AttemptResponse struct {
	Attempt service.Attempt `json:"attempt"`
	Dialog  *Dialog         `json:"dialog,omitempty"`
}

// ErrorResponse carries an error and the dialog presenting it
type ErrorResponse struct {
	Error  string  `json:"error"`
	Dialog *Dialog `json:"dialog,omitempty"`
}
