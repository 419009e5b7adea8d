package handlers

import (
	"fmt"
	"strconv"

	"checkout-service/models"
	"checkout-service/service"
)

const (
	errorDialogTitle   = "Error"
	successDialogTitle = "Success"
	notReadyMessage    = "Google Pay is not ready"
)

func errorDialog(message string) *models.Dialog {
	return &models.Dialog{Title: errorDialogTitle, Message: message}
}

func successDialog(message string) *models.Dialog {
	return &models.Dialog{Title: successDialogTitle, Message: message}
}

// outcomeDialog returns nil while the attempt is pending, abandoned or cancelled.
func outcomeDialog(attempt service.Attempt) *models.Dialog {
	if attempt.Outcome == nil {
		return nil
	}
	switch attempt.Outcome.Kind {
	case service.OutcomeSuccess:
		return successDialog(fmt.Sprintf("Payment successful: %s", attempt.Outcome.PaymentData))
	case service.OutcomeFailure:
		return errorDialog(strconv.Itoa(attempt.Outcome.StatusCode))
	default:
		return nil
	}
}
