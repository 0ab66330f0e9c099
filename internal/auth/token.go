// Package auth provides the credential primitives the service layer builds
// on: bcrypt password hashing, the signed time-limited login token, and the
// email-activation code.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ticket-office/internal/entity"
)

// TokenCodec signs and verifies the short-lived login tokens handed out by
// password login.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// Generate issues a signed token embedding the user id.
func (c *TokenCodec) Generate(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(c.ttl).Unix(),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the embedded user id. Any
// failure is entity.ErrInvalidToken.
func (c *TokenCodec) Parse(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, entity.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, entity.ErrInvalidToken
	}
	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, entity.ErrInvalidToken
	}
	return int64(rawID), nil
}

// ActivationCodec produces the time-limited codes mailed out to verify a
// registration email address. The code is a signed claim set carrying just
// the email.
type ActivationCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewActivationCodec(secret, salt string, ttl time.Duration) *ActivationCodec {
	return &ActivationCodec{secret: []byte(secret + salt), ttl: ttl}
}

// Generate issues an activation code for the email address.
func (c *ActivationCodec) Generate(email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(c.ttl).Unix(),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign activation code: %w", err)
	}
	return signed, nil
}

// Parse returns the email a valid, unexpired code was issued for.
func (c *ActivationCodec) Parse(code string) (string, error) {
	token, err := jwt.Parse(code, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return "", entity.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", entity.ErrInvalidToken
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", entity.ErrInvalidToken
	}
	return email, nil
}
