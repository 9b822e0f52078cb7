package auth

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"comedor-backend/internal/config"
	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/session"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserRoleKey  = "user_role"
	CtxCompanyIDKey = "company_id"
)

// JWTMiddleware validates the bearer token and puts the operator on the
// request context for the check-in core.
func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Falta el header Authorization")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "El header Authorization debe ser 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Token invalido o expirado")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxCompanyIDKey, claims.CompanyID)

		ctx := session.WithOperator(c.UserContext(), claims.Operator())
		ctx = logging.WithAttrs(ctx, slog.Uint64("operator_id", uint64(claims.UserID)))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "No se pudo leer el rol")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "No tiene permiso para esta accion")
	}
}
