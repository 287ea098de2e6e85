package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medbase/medbase/internal/platform/apperr"
	"github.com/medbase/medbase/internal/platform/db"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// DevUser is the identity assumed by DevAuthMiddleware for anonymous requests.
const DevUser = "dev-user"

type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Principal is the stored state of an authenticated user.
type Principal struct {
	Username string
	Roles    []string
	Active   bool
}

// PrincipalLookup loads the current state of a token subject. It returns an
// error wrapping apperr.ErrNotFound when the user no longer exists.
type PrincipalLookup interface {
	LookupPrincipal(ctx context.Context, username string) (*Principal, error)
}

type JWTConfig struct {
	Issuer     string
	SigningKey []byte
	// Skipper bypasses authentication for public routes.
	Skipper func(c echo.Context) bool
	// Users, when set, is consulted on every request so that deactivated or
	// deleted accounts lose access before their token expires.
	Users PrincipalLookup
}

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := parseToken(cfg, parts[1])
			if err != nil || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
			}

			roles := claims.Roles
			if cfg.Users != nil {
				p, err := cfg.Users.LookupPrincipal(c.Request().Context(), claims.Subject)
				if err != nil {
					if apperr.IsNotFound(err) {
						return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
					}
					return err
				}
				if !p.Active {
					return echo.NewHTTPError(http.StatusForbidden, "Inactive user account")
				}
				roles = p.Roles
			}

			c.SetRequest(c.Request().WithContext(withUser(c.Request().Context(), claims.Subject, roles)))
			return next(c)
		}
	}
}

func parseToken(cfg JWTConfig, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// DevAuthMiddleware lets anonymous requests through as an admin DevUser.
// Requests that do carry a bearer token are validated as in JWTMiddleware.
func DevAuthMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	jwtMW := JWTMiddleware(cfg)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withToken := jwtMW(next)
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}
			if c.Request().Header.Get("Authorization") != "" {
				return withToken(c)
			}
			ctx := withUser(c.Request().Context(), DevUser, []string{RoleAdmin})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func withUser(ctx context.Context, username string, roles []string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, username)
	ctx = context.WithValue(ctx, UserRolesKey, roles)
	return zerolog.Ctx(ctx).With().Str("user", username).Logger().WithContext(ctx)
}

// WithUser returns a copy of ctx carrying an authenticated user.
func WithUser(ctx context.Context, username string, roles ...string) context.Context {
	return withUser(ctx, username, roles)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

// ActorFromContext returns the username to record in audit columns.
func ActorFromContext(ctx context.Context) string {
	if uid := UserIDFromContext(ctx); uid != "" {
		return uid
	}
	return db.SystemActor
}
