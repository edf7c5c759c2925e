package authService

import (
	"ScanCheckout/internal/api/auth"
	authRepository "ScanCheckout/internal/api/auth/repository"
	"ScanCheckout/internal/entity"
	"ScanCheckout/pkg/bcrypt"
	jwtPkg "ScanCheckout/pkg/jwt"
	"ScanCheckout/pkg/utils"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.viam.com/test"
	cryptobcrypt "golang.org/x/crypto/bcrypt"
)

type fakeTerminals struct {
	byID    map[string]entity.Terminal
	touched []string
}

func (f *fakeTerminals) CreateTerminal(ctx context.Context, terminal entity.Terminal) error {
	for _, existing := range f.byID {
		if existing.Name == terminal.Name {
			return auth.ErrTerminalExists
		}
	}
	f.byID[terminal.ID] = terminal
	return nil
}

func (f *fakeTerminals) GetByID(ctx context.Context, id string) (entity.Terminal, error) {
	terminal, ok := f.byID[id]
	if !ok {
		return entity.Terminal{}, auth.ErrTerminalNotFound
	}
	return terminal, nil
}

func (f *fakeTerminals) TouchLastLogin(ctx context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeRepository struct {
	terminals *fakeTerminals
}

func (r *fakeRepository) NewClient(tx bool) (authRepository.Client, error) {
	return authRepository.Client{
		Terminals: r.terminals,
		Commit:    func() error { return nil },
		Rollback:  func() error { return nil },
	}, nil
}

func newTestService(t *testing.T) (AuthDomain, *fakeTerminals, bcrypt.IBcrypt) {
	t.Helper()
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "test-secret")
	t.Setenv("ADMIN_API_KEY", "admin-key")
	t.Setenv("TERMINAL_TOKEN_TTL", "1h")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	terminals := &fakeTerminals{byID: map[string]entity.Terminal{}}
	hasher := bcrypt.NewWithCost(cryptobcrypt.MinCost)
	svc := New(logger, &fakeRepository{terminals: terminals}, hasher, utils.New())
	return svc.Auth(), terminals, hasher
}

func TestRegisterThenIssueToken(t *testing.T) {
	svc, terminals, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.RegisterTerminal(ctx, "admin-key", auth.RegisterTerminalRequest{Name: "kiosk-1", Secret: "s3cret-pass"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, registered.ID, test.ShouldNotBeEmpty)
	test.That(t, terminals.byID[registered.ID].SecretHash, test.ShouldNotEqual, "s3cret-pass")

	res, err := svc.IssueToken(ctx, auth.TokenRequest{TerminalID: registered.ID, Secret: "s3cret-pass"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Terminal.Name, test.ShouldEqual, "kiosk-1")
	test.That(t, res.ExpiresAt, test.ShouldBeGreaterThan, time.Now().Unix())
	test.That(t, terminals.touched, test.ShouldResemble, []string{registered.ID})

	claims, err := jwtPkg.Parse(res.AccessToken, "JWT_ACCESS_TOKEN_SECRET")
	test.That(t, err, test.ShouldBeNil)
	login, err := jwtPkg.TerminalFromClaims(claims)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, login.ID, test.ShouldEqual, registered.ID)
}

func TestIssueTokenRejectsBadCredentials(t *testing.T) {
	svc, terminals, hasher := newTestService(t)
	ctx := context.Background()

	hash, err := hasher.HashSecret("right-secret")
	test.That(t, err, test.ShouldBeNil)
	terminals.byID["t1"] = entity.Terminal{ID: "t1", Name: "kiosk", SecretHash: hash, IsActive: true}
	terminals.byID["t2"] = entity.Terminal{ID: "t2", Name: "old", SecretHash: hash, IsActive: false}

	_, err = svc.IssueToken(ctx, auth.TokenRequest{TerminalID: "t1", Secret: "wrong-secret"})
	test.That(t, errors.Is(err, auth.ErrInvalidCredentials), test.ShouldBeTrue)

	_, err = svc.IssueToken(ctx, auth.TokenRequest{TerminalID: "missing", Secret: "right-secret"})
	test.That(t, errors.Is(err, auth.ErrInvalidCredentials), test.ShouldBeTrue)

	_, err = svc.IssueToken(ctx, auth.TokenRequest{TerminalID: "t2", Secret: "right-secret"})
	test.That(t, errors.Is(err, auth.ErrTerminalInactive), test.ShouldBeTrue)
}

func TestRegisterTerminalRequiresAdminKey(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RegisterTerminal(context.Background(), "nope", auth.RegisterTerminalRequest{Name: "kiosk", Secret: "s3cret-pass"})
	test.That(t, errors.Is(err, auth.ErrInvalidAdminKey), test.ShouldBeTrue)
}

func TestRegisterTerminalClosedWithoutAdminKey(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "")
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := New(logger, &fakeRepository{terminals: &fakeTerminals{byID: map[string]entity.Terminal{}}}, bcrypt.NewWithCost(cryptobcrypt.MinCost), utils.New())

	_, err := svc.Auth().RegisterTerminal(context.Background(), "", auth.RegisterTerminalRequest{Name: "kiosk", Secret: "s3cret-pass"})
	test.That(t, errors.Is(err, auth.ErrRegistrationClosed), test.ShouldBeTrue)
}
