package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smallbiznis-backoffice/pkg/config"
	"smallbiznis-backoffice/pkg/result"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("identity",
	fx.Provide(NewJWTResolver),
)

// Session is the raw credential presented by the caller. Handlers copy it out
// of the request and pass it to actions explicitly.
type Session struct {
	Token string
}

// SessionFromHeader extracts the bearer token from an Authorization header value.
func SessionFromHeader(header string) Session {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return Session{Token: strings.TrimSpace(header[len(prefix):])}
	}
	return Session{}
}

// User is the authenticated identity. It reads the same users table the
// member service owns.
type User struct {
	ID    string `gorm:"column:id;primaryKey"`
	Email string `gorm:"column:email"`
}

func (User) TableName() string { return "users" }

// Resolver looks up the authenticated user of a session. It returns nil, nil
// when the session does not authenticate anyone, and a result.Redirect when the
// caller has to sign in again.
type Resolver interface {
	CurrentUser(ctx context.Context, s Session) (*User, error)
}

type JWTResolver struct {
	db         *gorm.DB
	secret     []byte
	issuer     string
	signInPath string
}

func NewJWTResolver(db *gorm.DB, cfg *config.Config) Resolver {
	return &JWTResolver{
		db:         db,
		secret:     []byte(cfg.Auth.JWTSecret),
		issuer:     cfg.Auth.Issuer,
		signInPath: cfg.Auth.SignInPath,
	}
}

func (r *JWTResolver) CurrentUser(ctx context.Context, s Session) (*User, error) {
	if s.Token == "" || len(r.secret) == 0 {
		return nil, nil
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(s.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(r.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, result.Redirect{Location: r.signInPath}
		}
		zap.L().Debug("rejected session token", zap.Error(err))
		return nil, nil
	}

	if claims.Subject == "" {
		return nil, nil
	}

	var user User
	if err := r.db.WithContext(ctx).Where("id = ?", claims.Subject).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}

	return &user, nil
}

// IssueToken signs a session token for userID. Used by the seed binary and tests.
func IssueToken(secret, issuer, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}
