package station

import (
	"github.com/gofiber/fiber/v2"

	"comedor-backend/internal/checkin"
)

type kindResponse struct {
	status  int
	message string
}

var kindResponses = map[checkin.Kind]kindResponse{
	checkin.KindInvalidScanFormat:         {fiber.StatusBadRequest, "El codigo debe tener 8 digitos"},
	checkin.KindDuplicateScan:             {fiber.StatusTooManyRequests, "Codigo leido hace un momento, espere"},
	checkin.KindWorkerNotFound:            {fiber.StatusNotFound, "Trabajador no registrado"},
	checkin.KindInactiveOrMissing:         {fiber.StatusUnprocessableEntity, "Trabajador inactivo o no encontrado"},
	checkin.KindDailyLimitReached:         {fiber.StatusUnprocessableEntity, "Limite de comidas diario alcanzado"},
	checkin.KindDuplicateBulkRegistration: {fiber.StatusConflict, "Ya existe un registro para esta empresa y turno hoy"},
	checkin.KindInvalidQuantity:           {fiber.StatusBadRequest, "Ingrese una cantidad valida"},
	checkin.KindInvalidShift:              {fiber.StatusBadRequest, "Debe seleccionar un turno valido"},
	checkin.KindStoreUnavailable:          {fiber.StatusServiceUnavailable, "No se pudo conectar con la base de datos"},
	checkin.KindUnauthenticated:           {fiber.StatusUnauthorized, "Usuario no autenticado"},
	checkin.KindInvalidState:              {fiber.StatusConflict, "Accion no valida en el estado actual"},
}

// StatusFor maps a check-in error kind to its HTTP status.
func StatusFor(kind checkin.Kind) int {
	if r, ok := kindResponses[kind]; ok {
		return r.status
	}
	return fiber.StatusInternalServerError
}

// MessageFor is the operator-facing text for kind.
func MessageFor(kind checkin.Kind) string {
	if r, ok := kindResponses[kind]; ok {
		return r.message
	}
	return "Error inesperado"
}
