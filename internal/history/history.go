// Package history merges individual and bulk registrations into one
// newest-first feed for the station screens.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

const (
	unknownName    = "¿?"
	unknownCompany = "Empresa desconocida"
	unknownShift   = "Tipo desconocido"
)

type Range string

const (
	RangeToday     Range = "today"
	RangeYesterday Range = "yesterday"
	RangeWeek      Range = "week"
	RangeMonth     Range = "month"
	RangeAll       Range = "all"
)

// ParseRange accepts the English names and the Spanish station labels.
func ParseRange(s string) (Range, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today", "hoy":
		return RangeToday, nil
	case "yesterday", "ayer":
		return RangeYesterday, nil
	case "week", "semana":
		return RangeWeek, nil
	case "month", "mes":
		return RangeMonth, nil
	case "all", "todo":
		return RangeAll, nil
	}
	return "", fmt.Errorf("unknown history range %q", s)
}

// Bounds turns r into a time window. Today and yesterday are calendar days
// in loc; week and month reach back 7 and 30 days from now.
func (r Range) Bounds(now time.Time, loc *time.Location) store.TimeRange {
	if loc != nil {
		now = now.In(loc)
	}
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch r {
	case RangeToday:
		return store.TimeRange{From: midnight, To: midnight.AddDate(0, 0, 1)}
	case RangeYesterday:
		return store.TimeRange{From: midnight.AddDate(0, 0, -1), To: midnight}
	case RangeWeek:
		return store.TimeRange{From: now.AddDate(0, 0, -7)}
	case RangeMonth:
		return store.TimeRange{From: now.AddDate(0, 0, -30)}
	}
	return store.TimeRange{}
}

type Entry struct {
	ID           string           `json:"id"`
	Kind         models.AuditKind `json:"kind"`
	Name         string           `json:"name"`
	Company      string           `json:"company"`
	Shift        string           `json:"shift"`
	Quantity     int              `json:"quantity"`
	RegisteredAt time.Time        `json:"registered_at"`
}

type Source interface {
	ListMealHistory(ctx context.Context, r store.TimeRange, limit int) ([]models.MealRecord, error)
	ListBulkHistory(ctx context.Context, r store.TimeRange, limit int) ([]models.BulkMealRecord, error)
}

type Service struct {
	src Source
	loc *time.Location
}

func NewService(src Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{src: src, loc: loc}
}

// List returns entries in r, newest first. limit <= 0 returns all of them.
func (s *Service) List(ctx context.Context, r Range, now time.Time, limit int) ([]Entry, error) {
	bounds := r.Bounds(now, s.loc)

	meals, err := s.src.ListMealHistory(ctx, bounds, limit)
	if err != nil {
		return nil, err
	}
	bulk, err := s.src.ListBulkHistory(ctx, bounds, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(meals)+len(bulk))
	for _, m := range meals {
		out = append(out, fromMeal(m, s.loc))
	}
	for _, b := range bulk {
		out = append(out, fromBulk(b, s.loc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recent is the station home-screen feed.
func (s *Service) Recent(ctx context.Context, n int, now time.Time) ([]Entry, error) {
	return s.List(ctx, RangeAll, now, n)
}

func fromMeal(m models.MealRecord, loc *time.Location) Entry {
	e := Entry{
		ID:           fmt.Sprintf("ind-%d", m.ID),
		Kind:         models.AuditKindIndividual,
		Name:         unknownName,
		Company:      unknownCompany,
		Shift:        shiftLabel(m.Shift),
		Quantity:     1,
		RegisteredAt: m.RegisteredAt.In(loc),
	}
	if m.Worker != nil {
		if name := m.Worker.FullName(); name != "" {
			e.Name = name
		}
		if m.Worker.Company != nil {
			e.Company = m.Worker.Company.Name
		}
	}
	return e
}

func fromBulk(b models.BulkMealRecord, loc *time.Location) Entry {
	e := Entry{
		ID:           fmt.Sprintf("mas-%d", b.ID),
		Kind:         models.AuditKindBulk,
		Name:         fmt.Sprintf("%d comidas", b.Quantity),
		Company:      unknownCompany,
		Shift:        shiftLabel(b.Shift),
		Quantity:     b.Quantity,
		RegisteredAt: b.RegisteredAt.In(loc),
	}
	if b.Company != nil {
		e.Company = b.Company.Name
	}
	return e
}

func shiftLabel(s *models.Shift) string {
	switch {
	case s == nil:
		return unknownShift
	case s.Label != "":
		return s.Label
	}
	return string(s.Name)
}
