package checkout

import (
	"ScanCheckout/pkg/response"
	"net/http"
)

var (
	ErrSessionNotFound      = response.NewCodedError(http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
	ErrCaptureUnavailable   = response.NewCodedError(http.StatusServiceUnavailable, "CAPTURE_UNAVAILABLE", "capture source unavailable")
	ErrModelLoadFailed      = response.NewCodedError(http.StatusBadGateway, "MODEL_LOAD_FAILED", "failed to load classifier model")
	ErrUnknownSource        = response.NewCodedError(http.StatusBadRequest, "UNKNOWN_SOURCE", "unknown capture source")
	ErrSourceNotPushable    = response.NewCodedError(http.StatusConflict, "SOURCE_NOT_PUSHABLE", "session does not accept pushed frames")
	ErrInvalidBank          = response.NewCodedError(http.StatusBadRequest, "INVALID_BANK", "invalid bank selection")
	ErrPaymentUnavailable   = response.NewCodedError(http.StatusServiceUnavailable, "PAYMENT_UNAVAILABLE", "virtual account payments are not configured")
	ErrCreateVirtualAccount = response.NewCodedError(http.StatusBadGateway, "VIRTUAL_ACCOUNT_FAILED", "failed to create virtual account")
	ErrCreateReceipt        = response.NewError(http.StatusInternalServerError, "failed to store receipt")
	ErrReceiptNotFound      = response.NewCodedError(http.StatusNotFound, "RECEIPT_NOT_FOUND", "receipt not found")
	ErrTeardown             = response.NewError(http.StatusInternalServerError, "failed to release session resources")
)
