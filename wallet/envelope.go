package wallet

import "encoding/json"

// ResultStatus is the host's verdict for a resolved payment attempt.
type ResultStatus string

const (
	ResultOK          ResultStatus = "ok"
	ResultVendorError ResultStatus = "vendor-error"
	ResultCancelled   ResultStatus = "cancelled"
)

// ResultEnvelope is redelivered by the host for a payment attempt, keyed by
// the request code the attempt was started with. For ResultOK, Data holds the
// payment data; for ResultVendorError it holds a Status.
type ResultEnvelope struct {
	RequestCode int             `json:"requestCode"`
	Result      ResultStatus    `json:"result"`
	Data        json.RawMessage `json:"data,omitempty"`
}
