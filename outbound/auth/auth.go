// Package auth signs admins in against the configured accounts and issues
// HS256 session tokens. Signed out tokens are remembered in Redis until they
// would have expired.
package auth

import (
	"booth-queue/common/constant"
	"booth-queue/common/errs"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const defaultTTL = 12 * time.Hour

type Account struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AuthOutbound struct {
	Redis    *redis.Client
	Secret   []byte
	TTL      time.Duration
	Accounts []Account

	// Now defaults to time.Now.
	Now func() time.Time
}

func (out *AuthOutbound) now() time.Time {
	if out.Now != nil {
		return out.Now()
	}
	return time.Now()
}

func (out *AuthOutbound) ttl() time.Duration {
	if out.TTL > 0 {
		return out.TTL
	}
	return defaultTTL
}

func (out *AuthOutbound) account(email string) (Account, bool) {
	for _, acc := range out.Accounts {
		if strings.EqualFold(acc.Email, email) {
			return acc, true
		}
	}
	return Account{}, false
}

// SignIn checks the credentials and returns a signed token with its expiry.
func (out *AuthOutbound) SignIn(ctx context.Context, email, password string) (string, time.Time, error) {
	acc, ok := out.account(email)
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: unknown account", errs.ErrAuthFailed)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", errs.ErrAuthFailed, err)
	}

	now := out.now()
	expiresAt := now.Add(out.ttl())

	claims := Claims{
		Email: acc.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acc.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(out.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return token, expiresAt, nil
}

func (out *AuthOutbound) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return out.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(out.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrAuthFailed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: %v", errs.ErrAuthFailed, jwt.ErrSignatureInvalid)
	}

	return claims, nil
}

// Verify returns the claims of a valid token that has not been signed out.
func (out *AuthOutbound) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := out.parse(tokenString)
	if err != nil {
		return nil, err
	}

	n, err := out.Redis.Exists(ctx, fmt.Sprintf(constant.AuthRevokedTokenKey, claims.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("check revoked token: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: token revoked", errs.ErrAuthFailed)
	}

	return claims, nil
}

// SignOut revokes the token for the rest of its lifetime.
func (out *AuthOutbound) SignOut(ctx context.Context, tokenString string) error {
	claims, err := out.parse(tokenString)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(out.now())
	if ttl <= 0 {
		return nil
	}

	err = out.Redis.Set(ctx, fmt.Sprintf(constant.AuthRevokedTokenKey, claims.ID), "1", ttl).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}
