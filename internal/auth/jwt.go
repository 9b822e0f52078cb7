package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"comedor-backend/internal/models"
	"comedor-backend/internal/session"
)

const tokenTTL = 24 * time.Hour

type JWTCustomClaims struct {
	UserID    uint            `json:"user_id"`
	Username  string          `json:"username"`
	Role      models.UserRole `json:"role"`
	CompanyID *uint           `json:"company_id"`
	jwt.RegisteredClaims
}

func (c *JWTCustomClaims) Operator() session.Operator {
	return session.Operator{
		ID:        c.UserID,
		Username:  c.Username,
		Role:      c.Role,
		CompanyID: c.CompanyID,
	}
}

func GenerateToken(secret string, user *models.User, now time.Time) (string, error) {
	claims := &JWTCustomClaims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, raw string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token without user")
	}
	return claims, nil
}
