package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"comedor-backend/internal/config"
	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
)

const minPasswordLength = 8

type RegisterAdminRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func userMap(u *models.User) fiber.Map {
	m := fiber.Map{
		"id":         u.ID,
		"name":       u.Name,
		"username":   u.Username,
		"role":       u.Role,
		"company_id": u.CompanyID,
	}
	if u.Company != nil {
		m["company"] = fiber.Map{"id": u.Company.ID, "name": u.Company.Name}
	}
	return m
}

// POST /api/auth/register-admin
func RegisterAdminHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la solicitud invalido")
		}

		if strings.TrimSpace(body.Name) == "" || NormalizeUsername(body.Username) == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nombre, usuario y contrasena son obligatorios")
		}
		if len(body.Password) < minPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "La contrasena debe tener al menos 8 caracteres")
		}

		user, err := CreateFirstAdmin(c.UserContext(), db, body.Name, body.Username, body.Password)
		if errors.Is(err, ErrAdminExists) {
			return fiber.NewError(fiber.StatusForbidden, "Ya existe un administrador")
		}
		if err != nil {
			logging.Error(c.UserContext(), "create admin failed", logging.Err(err))
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
		}

		return c.Status(fiber.StatusCreated).JSON(userMap(user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la solicitud invalido")
		}

		user, err := Verify(c.UserContext(), db, body.Username, body.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, "Usuario o contrasena incorrectos")
		}
		if err != nil {
			logging.Error(c.UserContext(), "login failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo verificar el usuario")
		}

		token, err := GenerateToken(cfg.JWTSecret, user, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  userMap(user),
		})
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Sesion no valida")
		}

		var user models.User
		err := db.WithContext(c.UserContext()).Preload("Company").First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Usuario no encontrado")
		}
		if err != nil {
			// Fall back to what the token says.
			return c.JSON(fiber.Map{
				"id":         userID,
				"role":       c.Locals(CtxUserRoleKey),
				"company_id": c.Locals(CtxCompanyIDKey),
			})
		}
		return c.JSON(userMap(&user))
	}
}
