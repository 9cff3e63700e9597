package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

const sessionHandleIssuer = "trainer-discovery"

// SessionHandleService signs and verifies discovery session handles.
type SessionHandleService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionHandleService constructs a handle service.
func NewSessionHandleService(secret string, ttl time.Duration) *SessionHandleService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionHandleService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a handle for sessionID.
func (s *SessionHandleService) Issue(sessionID string) (models.SessionHandle, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.ttl)
	claims := &models.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionHandleIssuer,
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return models.SessionHandle{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session handle")
	}
	return models.SessionHandle{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate verifies a handle and returns the session id it is bound to.
func (s *SessionHandleService) Validate(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &models.SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionHandleIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrInvalidSessionKey, "")
	}
	claims, ok := parsed.Claims.(*models.SessionClaims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return "", appErrors.Clone(appErrors.ErrInvalidSessionKey, "invalid session handle claims")
	}
	return claims.SessionID, nil
}
