package checkoutService

import (
	"ScanCheckout/internal/api/checkout"
	"ScanCheckout/internal/entity"
	contextPkg "ScanCheckout/pkg/context"
	"ScanCheckout/pkg/doku"
	"context"

	"github.com/sirupsen/logrus"
)

// Pay resets the session and stores its receipt. When a bank is given a
// virtual account for the paid total is opened as well; if that fails the
// receipt is still stored and the error is returned.
func (s *checkoutService) Pay(ctx context.Context, terminal entity.TerminalLoginData, sessionID string, req checkout.PayRequest) (*entity.PaymentConfirmation, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if req.Bank != "" {
		if s.doku == nil {
			return nil, checkout.ErrPaymentUnavailable
		}
		if !doku.IsSupportedBank(req.Bank) {
			return nil, checkout.ErrInvalidBank
		}
	}

	if err := s.AuthorizeSession(ctx, terminal.ID, sessionID); err != nil {
		return nil, err
	}

	confirmation, err := s.manager.Pay(sessionID)
	if err != nil {
		return nil, mapScannerError(err)
	}

	log := s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"receipt_id": confirmation.ReceiptID,
		"total":      confirmation.Total,
	})

	var vaErr error
	switch {
	case req.Bank == "":
	case confirmation.Total == 0:
		log.Info("Skipping virtual account for empty receipt")
	default:
		va, err := s.doku.CreateVirtualAccount(doku.CreateVaRequest{
			Name:            terminal.Name,
			Amount:          confirmation.Total,
			TrxId:           confirmation.ReceiptID,
			Bank:            req.Bank,
			IssuedAt:        confirmation.PaidAt,
			ExpiredDuration: virtualAccountTTL,
		})
		if err != nil {
			log.WithField("error", err.Error()).Error("Failed to create virtual account")
			vaErr = checkout.ErrCreateVirtualAccount
		} else {
			confirmation.VirtualAccount = &entity.VirtualAccount{
				Number:          va.VirtualAccountNo,
				Bank:            va.Bank,
				ExpiresAt:       va.ExpiryDate,
				PaymentGuideURL: va.VirtualAccountURL,
			}
		}
	}

	if err := s.storeReceipt(ctx, confirmation); err != nil {
		// The session has already been reset, so the receipt is kept in the log.
		log.WithFields(logrus.Fields{
			"error": err.Error(),
			"lines": confirmation.Lines,
		}).Error("Failed to store receipt")
		return nil, checkout.ErrCreateReceipt
	}

	if vaErr != nil {
		return nil, vaErr
	}

	log.Info("Checkout session paid")
	return &confirmation, nil
}

func (s *checkoutService) storeReceipt(ctx context.Context, confirmation entity.PaymentConfirmation) error {
	client, err := s.repo.NewClient(true)
	if err != nil {
		return err
	}

	if err := client.Receipts.CreateReceipt(ctx, confirmation); err != nil {
		return s.rollback(client.Rollback, err)
	}

	for i, line := range confirmation.Lines {
		if err := client.Receipts.CreateReceiptLine(ctx, confirmation.ReceiptID, i+1, line); err != nil {
			return s.rollback(client.Rollback, err)
		}
	}

	return client.Commit()
}

func (s *checkoutService) rollback(rollback func() error, cause error) error {
	if err := rollback(); err != nil {
		s.log.WithField("error", err.Error()).Error("Failed to rollback receipt transaction")
	}
	return cause
}

func (s *checkoutService) GetReceipt(ctx context.Context, terminalID, receiptID string) (*entity.PaymentConfirmation, error) {
	requestID := contextPkg.GetRequestID(ctx)

	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	receipt, err := client.Receipts.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.TerminalID != terminalID {
		return nil, checkout.ErrReceiptNotFound
	}

	lines, err := client.Receipts.GetReceiptLines(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	if s.evidence != nil {
		for i := range lines {
			if lines[i].EvidenceKey == "" {
				continue
			}
			url, err := s.evidence.PresignUrl(lines[i].EvidenceKey)
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"request_id":   requestID,
					"evidence_key": lines[i].EvidenceKey,
					"error":        err.Error(),
				}).Warn("Failed to presign evidence url")
				continue
			}
			lines[i].EvidenceURL = url
		}
	}

	receipt.Lines = lines
	return &receipt, nil
}
