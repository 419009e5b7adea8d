package wallet

import (
	"fmt"
	"strconv"
)

// Common status codes reported by the wallet provider.
const (
	StatusSuccess            = 0
	StatusResolutionRequired = 6
	StatusNetworkError       = 7
	StatusInternalError      = 8
	StatusDeveloperError     = 10
	StatusError              = 13
	StatusInterrupted        = 14
	StatusTimeout            = 15
	StatusCanceled           = 16
)

var statusNames = map[int]string{
	StatusSuccess:            "SUCCESS",
	StatusResolutionRequired: "RESOLUTION_REQUIRED",
	StatusNetworkError:       "NETWORK_ERROR",
	StatusInternalError:      "INTERNAL_ERROR",
	StatusDeveloperError:     "DEVELOPER_ERROR",
	StatusError:              "ERROR",
	StatusInterrupted:        "INTERRUPTED",
	StatusTimeout:            "TIMEOUT",
	StatusCanceled:           "CANCELED",
}

// StatusCodeString returns the provider's name for code.
func StatusCodeString(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return "unknown status code: " + strconv.Itoa(code)
}

// Status is the status carried by a failed vendor call or a vendor-error result envelope.
type Status struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// APIError is raised by the vendor client when a call fails.
type APIError struct {
	Status
	Err error
}

func NewAPIError(code int, message string) *APIError {
	return &APIError{Status: Status{StatusCode: code, StatusMessage: message}}
}

func (e *APIError) Error() string {
	msg := e.StatusMessage
	if msg == "" {
		msg = StatusCodeString(e.StatusCode)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
