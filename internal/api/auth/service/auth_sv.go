package authService

import (
	"ScanCheckout/internal/api/auth"
	"ScanCheckout/internal/entity"
	contextPkg "ScanCheckout/pkg/context"
	jwtPkg "ScanCheckout/pkg/jwt"
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *authDomainImpl) IssueToken(c context.Context, req auth.TokenRequest) (auth.TokenResponse, error) {
	requestID := contextPkg.GetRequestID(c)
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.TokenResponse{}, err
	}

	terminal, err := repo.Terminals.GetByID(c, req.TerminalID)
	if err != nil {
		if errors.Is(err, auth.ErrTerminalNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, err
	}

	if err := s.bcrypt.CompareSecret(terminal.SecretHash, req.Secret); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"terminal_id": req.TerminalID,
		}).Warn("Terminal secret mismatch")
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	if !terminal.IsActive {
		return auth.TokenResponse{}, auth.ErrTerminalInactive
	}

	login := entity.TerminalLoginData{ID: terminal.ID, Name: terminal.Name}
	accessToken, expiresAt, err := jwtPkg.Sign(map[string]interface{}{
		"terminal_id": login.ID,
		"name":        login.Name,
	}, s.tokenTTL, s.secretEnv)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to sign terminal token")
		return auth.TokenResponse{}, auth.ErrFailedToIssueToken
	}

	if err := repo.Terminals.TouchLastLogin(c, terminal.ID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"terminal_id": terminal.ID,
			"error":       err.Error(),
		}).Warn("Failed to record terminal login")
	}

	return auth.TokenResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		Terminal:    login,
	}, nil
}

func (s *authDomainImpl) RegisterTerminal(c context.Context, adminKey string, req auth.RegisterTerminalRequest) (auth.RegisterTerminalResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	if s.adminKey == "" {
		return auth.RegisterTerminalResponse{}, auth.ErrRegistrationClosed
	}
	if subtle.ConstantTimeCompare([]byte(adminKey), []byte(s.adminKey)) != 1 {
		s.log.WithField("request_id", requestID).Warn("Terminal registration with invalid admin key")
		return auth.RegisterTerminalResponse{}, auth.ErrInvalidAdminKey
	}

	now := time.Now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return auth.RegisterTerminalResponse{}, err
	}

	hash, err := s.bcrypt.HashSecret(req.Secret)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to hash terminal secret")
		return auth.RegisterTerminalResponse{}, auth.ErrFailedToHashSecret
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return auth.RegisterTerminalResponse{}, err
	}

	err = repo.Terminals.CreateTerminal(c, entity.Terminal{
		ID:         id,
		Name:       req.Name,
		SecretHash: hash,
		IsActive:   true,
		CreatedAt:  now,
	})
	if err != nil {
		return auth.RegisterTerminalResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"terminal_id": id,
		"name":        req.Name,
	}).Info("Registered terminal")

	return auth.RegisterTerminalResponse{ID: id, Name: req.Name}, nil
}
