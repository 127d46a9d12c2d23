package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"go.uber.org/zap"
)

const (
	defaultJWKSRefresh = time.Hour
	tokenContextKey    = "auth_token"
)

// AuthConfig selects how bearer tokens are verified: a shared HMAC secret or a remote JWKS.
type AuthConfig struct {
	JWTSecret       string
	JWKSURL         string
	RefreshInterval time.Duration
}

// Authenticator verifies bearer tokens issued by the external auth provider.
type Authenticator struct {
	keyFunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
	logger  *zap.Logger
}

// NewAuthenticator builds an Authenticator. With a JWKS URL the key set is fetched once here
// and refreshed in the background until Close.
func NewAuthenticator(cfg AuthConfig, logger *zap.Logger) (*Authenticator, error) {
	switch {
	case cfg.JWTSecret != "" && cfg.JWKSURL != "":
		return nil, errors.New("auth: configure either a JWT secret or a JWKS URL, not both")
	case cfg.JWTSecret != "":
		return newAuthenticator(hmacKeyFunc([]byte(cfg.JWTSecret)), logger), nil
	case cfg.JWKSURL != "":
		refresh := cfg.RefreshInterval
		if refresh <= 0 {
			refresh = defaultJWKSRefresh
		}
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   refresh,
			RefreshUnknownKID: true,
			RefreshRateLimit:  time.Minute,
			RefreshErrorHandler: func(err error) {
				logger.Warn("jwks refresh failed", zap.Error(err))
			},
		})
		if err != nil {
			return nil, fmt.Errorf("auth: load jwks: %w", err)
		}
		a := newAuthenticator(jwks.Keyfunc, logger)
		a.jwks = jwks
		return a, nil
	default:
		return nil, errors.New("auth: a JWT secret or a JWKS URL is required")
	}
}

func newAuthenticator(keyFunc jwt.Keyfunc, logger *zap.Logger) *Authenticator {
	return &Authenticator{keyFunc: keyFunc, logger: logger}
}

func hmacKeyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}
}

// Close stops the background JWKS refresh, if any.
func (a *Authenticator) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

// Middleware rejects requests without a valid bearer token and stores the caller's
// subject, email and display name in the request context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	mw, err := echojwt.Config{
		ContextKey: tokenContextKey,
		KeyFunc:    a.keyFunc,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
		SuccessHandler: a.onSuccess,
		ErrorHandler: func(c echo.Context, err error) error {
			a.logger.Debug("rejected token",
				zap.String("path", c.Path()),
				zap.Error(err))
			return common.SendUnauthorizedError(c)
		},
	}.ToMiddleware()
	if err != nil {
		// KeyFunc is always set, so the config cannot be rejected.
		panic(err)
	}
	return mw
}

func (a *Authenticator) onSuccess(c echo.Context) {
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok {
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return
	}
	sub, _ := claims.GetSubject()
	ctx := context.WithValue(c.Request().Context(), common.AuthSubjectKey, sub)
	ctx = context.WithValue(ctx, common.AuthEmailKey, stringClaim(claims, "email"))
	ctx = context.WithValue(ctx, common.AuthNameKey, displayName(claims))
	c.SetRequest(c.Request().WithContext(ctx))
}

// displayName prefers a top-level name claim, then the provider's user_metadata.full_name.
func displayName(claims jwt.MapClaims) string {
	if name := stringClaim(claims, "name"); name != "" {
		return name
	}
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		if name, ok := meta["full_name"].(string); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}
