package worker

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

type WorkerResponse struct {
	ID          uint                `json:"id"`
	Code        string              `json:"code"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	FullName    string              `json:"full_name"`
	Role        string              `json:"role"`
	DailyQuota  int                 `json:"daily_quota"`
	Status      models.WorkerStatus `json:"status"`
	CompanyID   uint                `json:"company_id"`
	CompanyName string              `json:"company_name,omitempty"`
}

func toResponse(w *models.Worker) WorkerResponse {
	res := WorkerResponse{
		ID:         w.ID,
		Code:       w.Code,
		FirstName:  w.FirstName,
		LastName:   w.LastName,
		FullName:   w.FullName(),
		Role:       w.Role,
		DailyQuota: w.DailyQuota,
		Status:     w.Status,
		CompanyID:  w.CompanyID,
	}
	if w.Company != nil {
		res.CompanyName = w.Company.Name
	}
	return res
}

// POST /api/workers
func RegisterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos invalidos")
		}

		w, err := svc.Register(c.UserContext(), body)
		var verr *ValidationError
		switch {
		case err == nil:
		case errors.As(err, &verr):
			return fiber.NewError(fiber.StatusBadRequest, verr.Message)
		case errors.Is(err, ErrUnknownCompany):
			return fiber.NewError(fiber.StatusBadRequest, "La empresa seleccionada no existe")
		case errors.Is(err, ErrDuplicateWorkerCode):
			return fiber.NewError(fiber.StatusConflict, "Ya existe un trabajador con ese DNI")
		default:
			logging.Error(c.UserContext(), "register worker failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo registrar el trabajador")
		}

		logging.Info(c.UserContext(), "worker registered")
		return c.Status(fiber.StatusCreated).JSON(toResponse(w))
	}
}

// GET /api/workers/:code
func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := svc.Get(c.UserContext(), c.Params("code"))
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Trabajador no encontrado")
		}
		if err != nil {
			logging.Error(c.UserContext(), "get worker failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo consultar el trabajador")
		}
		return c.JSON(toResponse(w))
	}
}
