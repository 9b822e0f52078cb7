// Package station exposes the check-in workflow of each scanning device
// over HTTP.
package station

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"comedor-backend/internal/catalog"
	"comedor-backend/internal/checkin"
	"comedor-backend/internal/logging"
	"comedor-backend/internal/models"
	"comedor-backend/internal/session"
	"comedor-backend/internal/store"
)

type ScanRequest struct {
	Code string `json:"code"`
}

type SelectShiftRequest struct {
	ShiftID uint `json:"shift_id"`
}

type BulkRequest struct {
	CompanyID uint        `json:"company_id"`
	ShiftID   uint        `json:"shift_id"`
	Quantity  json.Number `json:"quantity"`
	// Date defaults to today in the configured zone.
	Date string `json:"date"`
}

type Response struct {
	Station  string           `json:"station"`
	Snapshot checkin.Snapshot `json:"snapshot"`
	Error    string           `json:"error,omitempty"`
	Kind     string           `json:"kind,omitempty"`
}

type BulkResponse struct {
	ID        uint   `json:"id"`
	CompanyID uint   `json:"company_id"`
	ShiftID   uint   `json:"shift_id"`
	Quantity  int    `json:"quantity"`
	Date      string `json:"date"`
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func workflowFor(c *fiber.Ctx, stations *checkin.Stations) (*checkin.Workflow, string, error) {
	device := strings.TrimSpace(c.Params("device"))
	wf, err := stations.Get(device)
	if err != nil {
		return nil, device, fiber.NewError(fiber.StatusBadRequest, "Identificador de estacion invalido")
	}
	c.SetUserContext(logging.WithAttrs(c.UserContext(), slog.String("station", device)))
	return wf, device, nil
}

func reply(c *fiber.Ctx, device string, snap checkin.Snapshot, err error) error {
	if err == nil {
		return c.JSON(Response{Station: device, Snapshot: snap})
	}

	kind := checkin.KindOf(err)
	status := StatusFor(kind)
	if status >= fiber.StatusInternalServerError {
		logging.Error(c.UserContext(), "station step failed", slog.String("kind", kind.String()), logging.Err(err))
	}
	return c.Status(status).JSON(Response{
		Station:  device,
		Snapshot: snap,
		Error:    MessageFor(kind),
		Kind:     kind.String(),
	})
}

// GET /api/stations/:device
func SnapshotHandler(stations *checkin.Stations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wf, device, err := workflowFor(c, stations)
		if err != nil {
			return err
		}
		return reply(c, device, wf.Snapshot(), nil)
	}
}

// POST /api/stations/:device/scan
func ScanHandler(stations *checkin.Stations, clock Clock) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wf, device, err := workflowFor(c, stations)
		if err != nil {
			return err
		}
		var body ScanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos invalidos")
		}
		snap, err := wf.Scan(c.UserContext(), body.Code, clock.now())
		return reply(c, device, snap, err)
	}
}

// PUT /api/stations/:device/shift
func SelectShiftHandler(stations *checkin.Stations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wf, device, err := workflowFor(c, stations)
		if err != nil {
			return err
		}
		var body SelectShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos invalidos")
		}
		snap, err := wf.SelectShift(c.UserContext(), body.ShiftID)
		return reply(c, device, snap, err)
	}
}

// POST /api/stations/:device/confirm
func ConfirmHandler(stations *checkin.Stations, clock Clock) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wf, device, err := workflowFor(c, stations)
		if err != nil {
			return err
		}
		snap, err := wf.Confirm(c.UserContext(), clock.now())
		return reply(c, device, snap, err)
	}
}

// POST /api/stations/:device/cancel
func CancelHandler(stations *checkin.Stations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wf, device, err := workflowFor(c, stations)
		if err != nil {
			return err
		}
		snap, err := wf.Cancel()
		return reply(c, device, snap, err)
	}
}

// POST /api/stations/:device/ack
func AcknowledgeHandler(stations *checkin.Stations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wf, device, err := workflowFor(c, stations)
		if err != nil {
			return err
		}
		snap, err := wf.Acknowledge()
		return reply(c, device, snap, err)
	}
}

// POST /api/bulk-registrations
func BulkHandler(reg *checkin.Registrar, cat *catalog.Catalog, clock Clock) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos invalidos")
		}

		fail := func(err error) error {
			kind := checkin.KindOf(err)
			if StatusFor(kind) >= fiber.StatusInternalServerError {
				logging.Error(c.UserContext(), "bulk registration failed", logging.Err(err))
			}
			return c.Status(StatusFor(kind)).JSON(fiber.Map{"error": MessageFor(kind), "kind": kind.String()})
		}

		qty, err := checkin.ParseQuantity(body.Quantity.String())
		if err != nil {
			return fail(err)
		}
		if body.Date != "" {
			if _, err := time.Parse(models.DateLayout, body.Date); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "La fecha debe tener formato YYYY-MM-DD")
			}
		}

		ctx := c.UserContext()
		if _, err := cat.FindCompany(ctx, body.CompanyID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "Debe seleccionar una empresa")
			}
			return fail(checkin.ErrStoreUnavailable)
		}
		if _, err := cat.FindShift(ctx, body.ShiftID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fail(checkin.ErrInvalidShift)
			}
			return fail(checkin.ErrStoreUnavailable)
		}

		op, ok := session.FromContext(ctx)
		if !ok {
			return fail(checkin.ErrUnauthenticated)
		}

		rec, err := reg.RegisterBulk(ctx, checkin.BulkRequest{
			CompanyID:  body.CompanyID,
			ShiftID:    body.ShiftID,
			Quantity:   qty,
			OperatorID: op.ID,
			Date:       body.Date,
			Now:        clock.now(),
		})
		if err != nil {
			return fail(err)
		}

		return c.Status(fiber.StatusCreated).JSON(BulkResponse{
			ID:        rec.ID,
			CompanyID: rec.CompanyID,
			ShiftID:   rec.ShiftID,
			Quantity:  rec.Quantity,
			Date:      rec.Date,
		})
	}
}

// Register mounts the station routes on r.
func Register(r fiber.Router, stations *checkin.Stations, reg *checkin.Registrar, cat *catalog.Catalog, clock Clock) {
	r.Get("/stations/:device", SnapshotHandler(stations))
	r.Post("/stations/:device/scan", ScanHandler(stations, clock))
	r.Put("/stations/:device/shift", SelectShiftHandler(stations))
	r.Post("/stations/:device/confirm", ConfirmHandler(stations, clock))
	r.Post("/stations/:device/cancel", CancelHandler(stations))
	r.Post("/stations/:device/ack", AcknowledgeHandler(stations))
	r.Post("/bulk-registrations", BulkHandler(reg, cat, clock))
}
