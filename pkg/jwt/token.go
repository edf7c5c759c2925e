package jwtPkg

import (
	"ScanCheckout/internal/entity"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	LocalsTerminal = "terminal"
	TokenQueryKey  = "token"
)

var (
	ErrMissingToken  = errors.New("missing access token")
	ErrInvalidFormat = errors.New("invalid Authorization format")
	ErrInvalidClaims = errors.New("token claims are missing required fields")
)

func secret(secretEnvKey string) ([]byte, error) {
	key := os.Getenv(secretEnvKey)
	if key == "" {
		return nil, fmt.Errorf("%s not set", secretEnvKey)
	}
	return []byte(key), nil
}

func Sign(data map[string]interface{}, expiresIn time.Duration, secretEnvKey string) (string, int64, error) {
	key, err := secret(secretEnvKey)
	if err != nil {
		return "", 0, err
	}

	expiredAt := time.Now().Add(expiresIn).Unix()

	claims := jwt.MapClaims{}
	for k, v := range data {
		claims[k] = v
	}
	claims["exp"] = expiredAt
	claims["authorization"] = true

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(key)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

// ExtractToken reads a bearer token from the Authorization header, falling back
// to the token query parameter for websocket upgrades where browsers cannot
// set headers.
func ExtractToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		if q := strings.TrimSpace(c.Query(TokenQueryKey)); q != "" {
			return q, nil
		}
		return "", ErrMissingToken
	}

	accessToken, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrInvalidFormat
	}

	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return "", ErrMissingToken
	}
	return accessToken, nil
}

func Parse(accessToken string, secretEnvKey string) (jwt.MapClaims, error) {
	key, err := secret(secretEnvKey)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// TerminalFromClaims builds the login data carried by a terminal token.
func TerminalFromClaims(claims jwt.MapClaims) (entity.TerminalLoginData, error) {
	id, _ := claims["terminal_id"].(string)
	name, _ := claims["name"].(string)
	if id == "" {
		return entity.TerminalLoginData{}, ErrInvalidClaims
	}
	return entity.TerminalLoginData{ID: id, Name: name}, nil
}

func GetTerminalLoginData(c *fiber.Ctx) (entity.TerminalLoginData, error) {
	terminal, ok := c.Locals(LocalsTerminal).(entity.TerminalLoginData)
	if !ok {
		return entity.TerminalLoginData{}, fiber.ErrUnauthorized
	}
	return terminal, nil
}
