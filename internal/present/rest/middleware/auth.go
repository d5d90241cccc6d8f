package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifyIdentity resolves the bearer token into requester context values.
// Resolution is best-effort; unauthenticated requests pass through and are
// stopped later by RequireIdentity where it matters.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Service.IdentifyIdentity")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			authType, token := split[0], split[1]
			if authType != "Bearer" {
				span.RecordError(fmt.Errorf("only Bearer is acceptable"))
				goto skipCheckAuthorization
			}

			result, err := s.auth.AuthJwt(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthJwt failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, result.IdentityID)
			ctx = context.WithValue(ctx, domain.RequesterRoleCtxKey, result.Role)
			span.SetAttributes(attribute.String("RequesterId", result.IdentityID))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireIdentity rejects requests that did not resolve to a requester.
func (s *AuthMiddleware) RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if RequesterID(c.Request().Context()) == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		return next(c)
	}
}

// RequireStaff rejects requests whose requester is not a moderator or admin.
func (s *AuthMiddleware) RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if RequesterID(ctx) == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if !RequesterRole(ctx).Staff() {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "staff only"})
		}
		return next(c)
	}
}

// RequesterID returns the authenticated identity id, or empty.
func RequesterID(ctx context.Context) string {
	id, _ := ctx.Value(domain.RequesterIdCtxKey).(string)
	return id
}

// RequesterRole returns the authenticated role, defaulting to USER.
func RequesterRole(ctx context.Context) domain.Role {
	role, ok := ctx.Value(domain.RequesterRoleCtxKey).(domain.Role)
	if !ok {
		return domain.RoleUser
	}
	return role
}
