package admin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"comedor-backend/internal/auth"
	"comedor-backend/internal/catalog"
	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

type CreateCompanyRequest struct {
	Name string `json:"name"`
}

type CreateShiftRequest struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
}

type CreateOperatorRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type OperatorResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Username  string          `json:"username"`
	Role      models.UserRole `json:"role"`
	CompanyID *uint           `json:"company_id"`
	CreatedAt string          `json:"created_at"`
}

// ----------------------------------------
// EMPRESAS Y TURNOS
// ----------------------------------------

// POST /api/admin/companies
func CreateCompanyHandler(cat *catalog.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCompanyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos invalidos")
		}

		co, err := cat.CreateCompany(c.UserContext(), body.Name)
		switch {
		case errors.Is(err, catalog.ErrInvalidCompany):
			return fiber.NewError(fiber.StatusBadRequest, "El nombre de la empresa no puede estar vacio")
		case errors.Is(err, store.ErrDuplicate):
			return fiber.NewError(fiber.StatusConflict, "La empresa ya existe")
		case err != nil:
			logging.Error(c.UserContext(), "create company failed", logging.Err(err))
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la empresa")
		}

		return c.Status(fiber.StatusCreated).JSON(catalog.CompanyResponse{ID: co.ID, Name: co.Name})
	}
}

// POST /api/admin/shifts
func CreateShiftHandler(cat *catalog.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos invalidos")
		}

		s, err := cat.CreateShift(c.UserContext(), catalog.ShiftInput(body))
		switch {
		case errors.Is(err, catalog.ErrInvalidShift):
			return fiber.NewError(fiber.StatusBadRequest, "El turno necesita nombre, etiqueta y minutos entre 0 y 1439")
		case errors.Is(err, store.ErrDuplicate):
			return fiber.NewError(fiber.StatusConflict, "El turno ya existe")
		case err != nil:
			logging.Error(c.UserContext(), "create shift failed", logging.Err(err))
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el turno")
		}

		return c.Status(fiber.StatusCreated).JSON(catalog.NewShiftResponse(*s))
	}
}

// ----------------------------------------
// OPERADORES DE UNA EMPRESA
// ----------------------------------------

// POST /api/admin/companies/:id/operators
func CreateOperatorHandler(db *gorm.DB, cat *catalog.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := c.ParamsInt("id")
		if err != nil || companyID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Empresa invalida")
		}
		co, err := cat.FindCompany(c.UserContext(), uint(companyID))
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Empresa no encontrada")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo consultar la empresa")
		}

		var body CreateOperatorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos invalidos")
		}
		if strings.TrimSpace(body.Name) == "" || auth.NormalizeUsername(body.Username) == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nombre, usuario y contrasena son obligatorios")
		}

		user, err := auth.CreateUser(c.UserContext(), db, body.Name, body.Username, body.Password, models.RoleOperator, &co.ID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "El usuario ya existe")
		}
		if err != nil {
			logging.Error(c.UserContext(), "create operator failed", logging.Err(err))
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el operador")
		}

		return c.Status(fiber.StatusCreated).JSON(toOperatorResponse(user))
	}
}

// GET /api/admin/companies/:id/operators
func ListOperatorsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := c.ParamsInt("id")
		if err != nil || companyID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Empresa invalida")
		}

		var users []models.User
		if err := db.WithContext(c.UserContext()).
			Where("company_id = ? AND role = ?", companyID, models.RoleOperator).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los operadores")
		}

		res := make([]OperatorResponse, 0, len(users))
		for i := range users {
			res = append(res, toOperatorResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

func toOperatorResponse(u *models.User) OperatorResponse {
	return OperatorResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
