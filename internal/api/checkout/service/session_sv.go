package checkoutService

import (
	"ScanCheckout/internal/api/checkout"
	"ScanCheckout/internal/entity"
	contextPkg "ScanCheckout/pkg/context"
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

func (s *checkoutService) StartSession(ctx context.Context, terminal entity.TerminalLoginData, req checkout.StartSessionRequest) (entity.SessionSnapshot, error) {
	requestID := contextPkg.GetRequestID(ctx)

	snap, err := s.manager.Start(ctx, terminal.ID, req.Source)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"terminal_id": terminal.ID,
			"source":      req.Source,
			"error":       err.Error(),
		}).Warn("Failed to start checkout session")
		return entity.SessionSnapshot{}, mapScannerError(err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"terminal_id": terminal.ID,
		"session_id":  snap.ID,
		"source":      snap.Source,
	}).Info("Checkout session started")

	return snap, nil
}

func (s *checkoutService) ListSessions(ctx context.Context, terminalID string) (*checkout.SessionListResponse, error) {
	sessions := make([]entity.SessionSnapshot, 0)
	for _, snap := range s.manager.List() {
		if snap.TerminalID == terminalID {
			sessions = append(sessions, snap)
		}
	}

	return &checkout.SessionListResponse{
		Sessions: sessions,
		Total:    len(sessions),
	}, nil
}

// GetSession hides sessions owned by other terminals behind a not found error.
func (s *checkoutService) GetSession(ctx context.Context, terminalID, sessionID string) (entity.SessionSnapshot, error) {
	snap, err := s.manager.Snapshot(ctx, sessionID)
	if err != nil {
		return entity.SessionSnapshot{}, mapScannerError(err)
	}
	if snap.TerminalID != terminalID {
		return entity.SessionSnapshot{}, checkout.ErrSessionNotFound
	}
	return snap, nil
}

func (s *checkoutService) AuthorizeSession(ctx context.Context, terminalID, sessionID string) error {
	session, err := s.manager.Session(sessionID)
	if err != nil {
		return mapScannerError(err)
	}
	if session.TerminalID() != terminalID {
		return checkout.ErrSessionNotFound
	}
	return nil
}

func (s *checkoutService) StopSession(ctx context.Context, terminalID, sessionID string) (entity.SessionSnapshot, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := s.AuthorizeSession(ctx, terminalID, sessionID); err != nil {
		return entity.SessionSnapshot{}, err
	}

	snap, err := s.manager.Stop(sessionID)
	if err != nil {
		mapped := mapScannerError(err)
		if errors.Is(mapped, checkout.ErrSessionNotFound) {
			return entity.SessionSnapshot{}, mapped
		}

		// The session is gone either way; release failures are only reported.
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Checkout session stopped with release errors")
	}

	return snap, nil
}

func (s *checkoutService) PublishFrame(ctx context.Context, sessionID string, data []byte) error {
	if err := s.utils.ValidateFrame(data); err != nil {
		return err
	}

	frame := entity.Frame{
		Data:        data,
		ContentType: http.DetectContentType(data),
	}
	return mapScannerError(s.manager.Publish(sessionID, frame))
}

func (s *checkoutService) Subscribe(ctx context.Context, terminalID, sessionID string, buffer int) (<-chan entity.SessionEvent, func(), error) {
	if err := s.AuthorizeSession(ctx, terminalID, sessionID); err != nil {
		return nil, nil, err
	}

	session, err := s.manager.Session(sessionID)
	if err != nil {
		return nil, nil, mapScannerError(err)
	}

	events, cancel := session.Subscribe(buffer)
	return events, cancel, nil
}
