package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"opensoak/internal/repository"
)

// Domain errors for auth flows.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationClosed = errors.New("registration closed")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	tokenIssuer       = "opensoak"
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
	maxUsernameLength = 64
)

// AuthOptions configures token signing and who may sign up.
type AuthOptions struct {
	SigningKey string
	TokenTTL   time.Duration

	// OpenRegistration lets anyone create an account. Otherwise only the
	// first operator can sign up; later accounts are refused.
	OpenRegistration bool
}

// AuthService handles operator sign-up, sign-in and token checks.
type AuthService struct {
	operators repository.OperatorRepo
	opts      AuthOptions
	now       func() time.Time
}

func NewAuthService(operators repository.OperatorRepo, opts AuthOptions) *AuthService {
	return &AuthService{operators: operators, opts: opts, now: time.Now}
}

// SignUp validates the credentials, hashes the password and stores a new operator.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return 0, err
	}
	if !s.opts.OpenRegistration {
		n, err := s.operators.Count(ctx)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return 0, ErrRegistrationClosed
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return s.operators.Create(ctx, username, string(hash), s.now())
}

// Claims carries the operator id; Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int `json:"operator_id"`
}

// GenerateToken checks the credentials and issues a signed token. Unknown
// users and wrong passwords produce the same error.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	op, err := s.operators.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(op.ID, op.Username)
}

// ParseToken verifies signature, algorithm, issuer and expiry and returns the operator id.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(accessToken, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.opts.SigningKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.OperatorID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.OperatorID, nil
}

func (s *AuthService) issueToken(operatorID int, username string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OperatorID: operatorID,
	})
	return token.SignedString([]byte(s.opts.SigningKey))
}

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username is empty", ErrValidation)
	case len(username) > maxUsernameLength:
		return fmt.Errorf("%w: username longer than %d characters", ErrValidation, maxUsernameLength)
	case strings.IndexFunc(username, unicode.IsSpace) >= 0:
		return fmt.Errorf("%w: username must not contain spaces", ErrValidation)
	case len(password) < minPasswordLength:
		return fmt.Errorf("%w: password shorter than %d characters", ErrValidation, minPasswordLength)
	case len(password) > maxPasswordLength:
		return fmt.Errorf("%w: password longer than %d bytes", ErrValidation, maxPasswordLength)
	}
	return nil
}
