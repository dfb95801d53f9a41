package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

const adminScope = "admin"

type tokenService struct {
	secret []byte
}

func NewTokenService(secret string) ports.TokenService {
	return &tokenService{secret: []byte(secret)}
}

func (s *tokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("no signing secret configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": adminScope,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *tokenService) Verify(tokenStr string) (*ports.AdminClaims, error) {
	if len(s.secret) == 0 {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if scope, _ := claims["scope"].(string); scope != adminScope {
		return nil, fmt.Errorf("%w: missing admin scope", domain.ErrUnauthorized)
	}

	sub, _ := claims.GetSubject()
	exp, _ := claims.GetExpirationTime()
	out := &ports.AdminClaims{Subject: sub}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
