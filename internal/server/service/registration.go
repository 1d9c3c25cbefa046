package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

const (
	registrationIssuer = "freee-labor-bot"
	registrationTTL    = 24 * time.Hour
)

// ErrInvalidRegistration is returned for a bad or expired registration token
// or a missing employee id.
var ErrInvalidRegistration = errors.New("invalid registration")

// RegistrationService links LINE users to HR employees. The link handed out on
// follow carries a signed token naming the LINE user.
type RegistrationService struct {
	repo      Repository
	messenger Messenger
	secret    []byte
	formURL   string
	menu      string
	logger    *slog.Logger
	now       func() time.Time
}

// IssueToken signs a registration token for userID.
func (s *RegistrationService) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    registrationIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(registrationTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Link returns the registration form URL for userID.
func (s *RegistrationService) Link(userID string) (string, error) {
	tok, err := s.IssueToken(userID)
	if err != nil {
		return "", fmt.Errorf("sign registration token: %w", err)
	}
	sep := "?"
	if strings.Contains(s.formURL, "?") {
		sep = "&"
	}
	return s.formURL + sep + "token=" + url.QueryEscape(tok), nil
}

// ParseToken verifies token and returns the LINE user id it names.
func (s *RegistrationService) ParseToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(registrationIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidRegistration)
	}
	return claims.Subject, nil
}

// Register creates the user record named by token and links the attendance
// rich menu. A duplicate surfaces as repository.ErrAlreadyExists.
func (s *RegistrationService) Register(ctx context.Context, token, employeeID string) (models.UserRecord, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return models.UserRecord{}, fmt.Errorf("%w: employee id is required", ErrInvalidRegistration)
	}
	userID, err := s.ParseToken(token)
	if err != nil {
		return models.UserRecord{}, err
	}
	rec := models.UserRecord{UserID: userID, EmployeeID: employeeID}
	if err := s.repo.CreateUser(ctx, rec); err != nil {
		return models.UserRecord{}, err
	}
	s.logger.Info("user registered", "user_id", userID, "employee_id", employeeID)

	if s.menu != "" {
		if err := s.messenger.LinkRichMenu(ctx, userID, s.menu); err != nil {
			s.logger.Warn("link attendance rich menu", "user_id", userID, "err", err)
		}
	}
	return rec, nil
}
