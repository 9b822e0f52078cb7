package history

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"comedor-backend/internal/logging"
)

const (
	maxLimit      = 500
	defaultRecent = 10
	maxRecent     = 50
)

// GET /api/history?range=today&limit=10
func ListHandler(svc *Service, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		r, err := ParseRange(c.Query("range"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Filtro invalido (today, yesterday, week, month, all)")
		}

		limit := c.QueryInt("limit", maxLimit)
		if limit <= 0 || limit > maxLimit {
			limit = maxLimit
		}

		entries, err := svc.List(c.UserContext(), r, now(), limit)
		if err != nil {
			logging.Error(c.UserContext(), "list history failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo cargar el historial")
		}
		return c.JSON(fiber.Map{
			"range":   r,
			"count":   len(entries),
			"entries": entries,
		})
	}
}

// GET /api/history/recent?n=10
func RecentHandler(svc *Service, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		n := c.QueryInt("n", defaultRecent)
		if n <= 0 {
			n = defaultRecent
		}
		if n > maxRecent {
			n = maxRecent
		}

		entries, err := svc.Recent(c.UserContext(), n, now())
		if err != nil {
			logging.Error(c.UserContext(), "recent history failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo cargar el historial")
		}
		return c.JSON(fiber.Map{
			"count":   len(entries),
			"entries": entries,
		})
	}
}
