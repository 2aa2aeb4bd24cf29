package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in token claims. RoleDemo marks a registered but restricted
// account; it is treated as a guest by every quota decision.
const (
	RoleStudent = "student"
	RoleDemo    = "demo"
)

// Service issues and parses the HS256 access tokens used by the identity
// middleware.
type Service struct {
	hmac []byte
}

func NewService(secret string) *Service {
	return &Service{hmac: []byte(secret)}
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) Issue(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "material-quiz-service",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.hmac)
}

func (s *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
