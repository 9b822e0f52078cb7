package catalog

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
)

type CompanyResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ShiftResponse struct {
	ID          uint             `json:"id"`
	Name        models.ShiftName `json:"name"`
	Label       string           `json:"label"`
	StartMinute int              `json:"start_minute"`
	EndMinute   int              `json:"end_minute"`
	Window      string           `json:"window"`
}

func NewShiftResponse(s models.Shift) ShiftResponse {
	return ShiftResponse{
		ID:          s.ID,
		Name:        s.Name,
		Label:       s.Label,
		StartMinute: s.StartMinute,
		EndMinute:   s.EndMinute,
		Window:      clock(s.StartMinute) + "-" + clock(s.EndMinute),
	}
}

func clock(minute int) string {
	return time.Date(0, 1, 1, minute/60, minute%60, 0, 0, time.UTC).Format("15:04")
}

// GET /api/companies
func ListCompaniesHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companies, err := cat.ListCompanies(c.UserContext())
		if err != nil {
			logging.Error(c.UserContext(), "list companies failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudieron cargar las empresas")
		}

		res := make([]CompanyResponse, 0, len(companies))
		for _, co := range companies {
			res = append(res, CompanyResponse{ID: co.ID, Name: co.Name})
		}
		return c.JSON(res)
	}
}

// GET /api/shifts
func ListShiftsHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shifts, err := cat.ListShifts(c.UserContext())
		if err != nil {
			logging.Error(c.UserContext(), "list shifts failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudieron cargar los turnos")
		}

		res := make([]ShiftResponse, 0, len(shifts))
		for _, s := range shifts {
			res = append(res, NewShiftResponse(s))
		}
		return c.JSON(res)
	}
}

// GET /api/shifts/current
func CurrentShiftHandler(cat *Catalog, loc *time.Location, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		s, err := cat.CurrentShift(c.UserContext(), now(), loc)
		if errors.Is(err, ErrNoShifts) {
			return fiber.NewError(fiber.StatusNotFound, "No hay turnos configurados")
		}
		if err != nil {
			logging.Error(c.UserContext(), "resolve current shift failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo resolver el turno")
		}
		return c.JSON(NewShiftResponse(s))
	}
}
