// Package session carries the authenticated operator that registrations are
// attributed to.
package session

import (
	"context"

	"comedor-backend/internal/models"
)

type Operator struct {
	ID        uint
	Username  string
	Role      models.UserRole
	CompanyID *uint
}

// Context answers who is operating the station right now.
type Context interface {
	CurrentOperatorID() (uint, bool)
}

// Static is a fixed operator (or none, when zero).
type Static Operator

func (s Static) CurrentOperatorID() (uint, bool) {
	return s.ID, s.ID != 0
}

type ctxOperatorKey struct{}

func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, ctxOperatorKey{}, op)
}

func FromContext(ctx context.Context) (Operator, bool) {
	if ctx == nil {
		return Operator{}, false
	}
	op, ok := ctx.Value(ctxOperatorKey{}).(Operator)
	return op, ok && op.ID != 0
}

// Resolve prefers the operator on ctx and falls back to the given session.
func Resolve(ctx context.Context, fallback Context) (uint, bool) {
	if op, ok := FromContext(ctx); ok {
		return op.ID, true
	}
	if fallback == nil {
		return 0, false
	}
	return fallback.CurrentOperatorID()
}
