package checkoutService

import (
	"ScanCheckout/internal/api/checkout"
	"ScanCheckout/internal/scanner"
	"ScanCheckout/pkg/capture"
	"errors"
)

// mapScannerError translates scanner failures into API errors; anything it
// does not recognise is returned unchanged.
func mapScannerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, scanner.ErrSessionNotFound), errors.Is(err, capture.ErrStopped):
		return checkout.ErrSessionNotFound
	case errors.Is(err, scanner.ErrCaptureUnavailable), errors.Is(err, capture.ErrUnavailable):
		return checkout.ErrCaptureUnavailable
	case errors.Is(err, scanner.ErrModelLoad):
		return checkout.ErrModelLoadFailed
	case errors.Is(err, scanner.ErrUnknownSource):
		return checkout.ErrUnknownSource
	case errors.Is(err, scanner.ErrSourceNotPushable):
		return checkout.ErrSourceNotPushable
	default:
		return err
	}
}
