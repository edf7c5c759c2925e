package authService

import (
	"ScanCheckout/internal/api/auth"
	authRepository "ScanCheckout/internal/api/auth/repository"
	"ScanCheckout/pkg/bcrypt"
	"ScanCheckout/pkg/utils"
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTokenTTL = 12 * time.Hour

type AuthService interface {
	Auth() AuthDomain
}

type AuthDomain interface {
	IssueToken(c context.Context, req auth.TokenRequest) (auth.TokenResponse, error)
	RegisterTerminal(c context.Context, adminKey string, req auth.RegisterTerminalRequest) (auth.RegisterTerminalResponse, error)
}

type authService struct {
	auth AuthDomain
}

type authDomainImpl struct {
	log       *logrus.Logger
	repo      authRepository.Repository
	bcrypt    bcrypt.IBcrypt
	utils     utils.IUtils
	tokenTTL  time.Duration
	adminKey  string
	secretEnv string
}

func New(
	log *logrus.Logger,
	repo authRepository.Repository,
	bcrypt bcrypt.IBcrypt,
	utils utils.IUtils,
) AuthService {
	ttl := defaultTokenTTL
	if raw := os.Getenv("TERMINAL_TOKEN_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		} else {
			log.WithField("value", raw).Warn("Ignoring invalid TERMINAL_TOKEN_TTL")
		}
	}

	return &authService{
		auth: &authDomainImpl{
			log:       log,
			repo:      repo,
			bcrypt:    bcrypt,
			utils:     utils,
			tokenTTL:  ttl,
			adminKey:  os.Getenv("ADMIN_API_KEY"),
			secretEnv: "JWT_ACCESS_TOKEN_SECRET",
		},
	}
}

func (s *authService) Auth() AuthDomain {
	return s.auth
}
