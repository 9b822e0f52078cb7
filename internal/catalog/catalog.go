// Package catalog serves the reference data stations read on every scan:
// companies and meal shifts. Reads are cached for a short TTL; writes purge.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"comedor-backend/internal/models"
	"comedor-backend/internal/shift"
	"comedor-backend/internal/store"
)

var (
	ErrInvalidCompany = errors.New("company name is required")
	ErrInvalidShift   = errors.New("shift needs a name, a label and minutes within the day")
	ErrNoShifts       = errors.New("no shifts configured")
)

const (
	keyCompanies = "companies"
	keyShifts    = "shifts"
)

type Source interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListShifts(ctx context.Context) ([]models.Shift, error)
	CreateCompany(ctx context.Context, c *models.Company) error
	CreateShift(ctx context.Context, s *models.Shift) error
}

type Catalog struct {
	src       Source
	companies *expirable.LRU[string, []models.Company]
	shifts    *expirable.LRU[string, []models.Shift]
}

// New wraps src. A ttl of zero disables caching.
func New(src Source, ttl time.Duration) *Catalog {
	c := &Catalog{src: src}
	if ttl > 0 {
		c.companies = expirable.NewLRU[string, []models.Company](1, nil, ttl)
		c.shifts = expirable.NewLRU[string, []models.Shift](1, nil, ttl)
	}
	return c
}

func (c *Catalog) ListCompanies(ctx context.Context) ([]models.Company, error) {
	if c.companies != nil {
		if v, ok := c.companies.Get(keyCompanies); ok {
			return append([]models.Company(nil), v...), nil
		}
	}
	v, err := c.src.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if c.companies != nil {
		c.companies.Add(keyCompanies, v)
	}
	return append([]models.Company(nil), v...), nil
}

func (c *Catalog) ListShifts(ctx context.Context) ([]models.Shift, error) {
	if c.shifts != nil {
		if v, ok := c.shifts.Get(keyShifts); ok {
			return append([]models.Shift(nil), v...), nil
		}
	}
	v, err := c.src.ListShifts(ctx)
	if err != nil {
		return nil, err
	}
	if c.shifts != nil {
		c.shifts.Add(keyShifts, v)
	}
	return append([]models.Shift(nil), v...), nil
}

// FindCompany returns store.ErrNotFound when id is not in the list.
func (c *Catalog) FindCompany(ctx context.Context, id uint) (models.Company, error) {
	companies, err := c.ListCompanies(ctx)
	if err != nil {
		return models.Company{}, err
	}
	for _, co := range companies {
		if co.ID == id {
			return co, nil
		}
	}
	return models.Company{}, fmt.Errorf("company %d: %w", id, store.ErrNotFound)
}

func (c *Catalog) FindShift(ctx context.Context, id uint) (models.Shift, error) {
	shifts, err := c.ListShifts(ctx)
	if err != nil {
		return models.Shift{}, err
	}
	for _, s := range shifts {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Shift{}, fmt.Errorf("shift %d: %w", id, store.ErrNotFound)
}

// CurrentShift resolves the configured shift for now in loc.
func (c *Catalog) CurrentShift(ctx context.Context, now time.Time, loc *time.Location) (models.Shift, error) {
	shifts, err := c.ListShifts(ctx)
	if err != nil {
		return models.Shift{}, err
	}
	if loc != nil {
		now = now.In(loc)
	}
	s, ok := shift.ResolveFromTable(shifts, shift.MinuteOfDay(now))
	if !ok {
		return models.Shift{}, ErrNoShifts
	}
	return s, nil
}

func (c *Catalog) CreateCompany(ctx context.Context, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidCompany
	}
	co := &models.Company{Name: name}
	if err := c.src.CreateCompany(ctx, co); err != nil {
		return nil, err
	}
	c.Purge()
	return co, nil
}

type ShiftInput struct {
	Name        string
	Label       string
	StartMinute int
	EndMinute   int
}

func (c *Catalog) CreateShift(ctx context.Context, in ShiftInput) (*models.Shift, error) {
	in.Name = strings.ToLower(strings.TrimSpace(in.Name))
	in.Label = strings.TrimSpace(in.Label)
	if in.Name == "" || in.Label == "" ||
		in.StartMinute < 0 || in.StartMinute >= shift.MinutesPerDay ||
		in.EndMinute < 0 || in.EndMinute >= shift.MinutesPerDay {
		return nil, ErrInvalidShift
	}

	s := &models.Shift{
		Name:        models.ShiftName(in.Name),
		Label:       in.Label,
		StartMinute: in.StartMinute,
		EndMinute:   in.EndMinute,
	}
	if err := c.src.CreateShift(ctx, s); err != nil {
		return nil, err
	}
	c.Purge()
	return s, nil
}

// Purge drops every cached list.
func (c *Catalog) Purge() {
	if c.companies != nil {
		c.companies.Purge()
	}
	if c.shifts != nil {
		c.shifts.Purge()
	}
}
