package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/session"
	"comedor-backend/internal/store"
)

type Lister interface {
	ListAuditEntries(ctx context.Context, f store.AuditFilter) ([]models.AuditEntry, error)
}

type AuditEntryResponse struct {
	ID               uint             `json:"id"`
	CreatedAt        string           `json:"created_at"`
	OperatorID       uint             `json:"operator_id"`
	Kind             models.AuditKind `json:"kind"`
	MealRecordID     *uint            `json:"meal_record_id"`
	BulkMealRecordID *uint            `json:"bulk_meal_record_id"`
	Description      string           `json:"description"`
}

const maxListLimit = 500

// GET /api/audit-entries?operator_id=1&kind=bulk&from=2025-06-01&to=2025-06-30&limit=100
// Operators only see their own entries; admins may filter by any operator.
func ListAuditEntriesHandler(l Lister, loc *time.Location) fiber.Handler {
	if loc == nil {
		loc = time.UTC
	}
	return func(c *fiber.Ctx) error {
		op, ok := session.FromContext(c.UserContext())
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Sesion no valida")
		}

		var f store.AuditFilter
		if op.Role != models.RoleAdmin {
			f.OperatorID = op.ID
		} else if v := c.Query("operator_id"); v != "" {
			var id uint
			if _, err := fmt.Sscan(v, &id); err != nil || id == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "operator_id invalido")
			}
			f.OperatorID = id
		}

		switch kind := models.AuditKind(c.Query("kind")); kind {
		case "":
		case models.AuditKindIndividual, models.AuditKindBulk:
			f.Kind = kind
		default:
			return fiber.NewError(fiber.StatusBadRequest, "kind debe ser individual o bulk")
		}

		if v := c.Query("from"); v != "" {
			from, err := time.ParseInLocation(models.DateLayout, v, loc)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from debe tener formato YYYY-MM-DD")
			}
			f.Range.From = from
		}
		if v := c.Query("to"); v != "" {
			to, err := time.ParseInLocation(models.DateLayout, v, loc)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to debe tener formato YYYY-MM-DD")
			}
			// inclusive day
			f.Range.To = to.AddDate(0, 0, 1)
		}

		f.Limit = c.QueryInt("limit", 100)
		if f.Limit <= 0 || f.Limit > maxListLimit {
			f.Limit = maxListLimit
		}

		entries, err := l.ListAuditEntries(c.UserContext(), f)
		if err != nil {
			logging.Error(c.UserContext(), "list audit entries failed", logging.Err(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "No se pudo listar la auditoria")
		}

		resp := make([]AuditEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, AuditEntryResponse{
				ID:               e.ID,
				CreatedAt:        e.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
				OperatorID:       e.OperatorID,
				Kind:             e.Kind,
				MealRecordID:     e.MealRecordID,
				BulkMealRecordID: e.BulkMealRecordID,
				Description:      e.Description,
			})
		}
		return c.JSON(resp)
	}
}
