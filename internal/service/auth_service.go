package service

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hackmate/hackathon-console/internal/config"
	"github.com/hackmate/hackathon-console/internal/model"
)

// TokenType distinguishes participant vs organizer tokens.
type TokenType string

const (
	TokenTypeParticipant TokenType = "participant"
	TokenTypeOrganizer   TokenType = "organizer"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType     TokenType `json:"token_type"`
	UserID        int       `json:"user_id"`
	ParticipantID string    `json:"participant_id,omitempty"` // Participant only
	Permissions   []string  `json:"permissions,omitempty"`    // Organizer only
}

// HasPermission reports whether the token grants code.
func (c *Claims) HasPermission(code model.Permission) bool {
	return slices.Contains(c.Permissions, string(code))
}

// Participant returns the backend participant id carried by the token,
// falling back to the numeric user id.
func (c *Claims) Participant() string {
	if c.ParticipantID != "" {
		return c.ParticipantID
	}
	return strconv.Itoa(c.UserID)
}

// AuthService verifies tokens issued by the hackathon platform's auth service.
type AuthService struct {
	secret []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{secret: []byte(cfg.JWTSecret)}
}

// IssueToken signs a token with the shared secret. The platform issues
// production tokens; this is used by tooling and tests.
func (s *AuthService) IssueToken(tokenType TokenType, userID int, participantID string, permissions []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType:     tokenType,
		UserID:        userID,
		ParticipantID: participantID,
		Permissions:   permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TokenType != TokenTypeParticipant && claims.TokenType != TokenTypeOrganizer {
		return nil, fmt.Errorf("unknown token type %q", claims.TokenType)
	}

	return claims, nil
}
