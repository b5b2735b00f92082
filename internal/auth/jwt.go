package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"workshop-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token whose subject is the user id.
func IssueToken(secret string, ttl time.Duration, user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// UserLookup loads the full user record behind a token subject.
type UserLookup interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
}

type Verifier struct {
	secret []byte
	users  UserLookup
}

func NewVerifier(secret string, users UserLookup) *Verifier {
	return &Verifier{secret: []byte(secret), users: users}
}

// Verify maps a bearer token to the user it was issued for. It fails closed:
// any parse, signature, expiry or lookup problem yields (false, nil).
func (v *Verifier) Verify(ctx context.Context, tokenStr string) (valid bool, user *models.User) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("token verification panicked", "panic", r)
			valid, user = false, nil
		}
	}()

	if tokenStr == "" {
		return false, nil
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return false, nil
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return false, nil
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return false, nil
	}

	u, err := v.users.FindUser(ctx, uint(id))
	if err != nil || u == nil || !u.Registered() {
		return false, nil
	}
	return true, u
}
