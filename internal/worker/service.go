// Package worker registers new diners, typically right after a station
// scanned a code it did not know.
package worker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

var (
	ErrDuplicateWorkerCode = errors.New("worker code already registered")
	ErrUnknownCompany      = errors.New("company does not exist")
)

var codePattern = regexp.MustCompile(`^[0-9]{8}$`)

// ValidationError names the offending field and carries a message fit for
// the operator.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Store interface {
	FindWorkerByCode(ctx context.Context, code string) (*models.Worker, error)
	CreateWorker(ctx context.Context, w *models.Worker) error
}

type Companies interface {
	FindCompany(ctx context.Context, id uint) (models.Company, error)
}

type RegisterInput struct {
	CompanyID  uint   `json:"company_id"`
	Code       string `json:"code"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	DailyQuota *int   `json:"daily_quota"`
	Status     string `json:"status"`
}

type Service struct {
	store     Store
	companies Companies
}

func NewService(s Store, companies Companies) *Service {
	return &Service{store: s, companies: companies}
}

// Register validates in and creates the worker. Validation failures are
// *ValidationError; a taken code is ErrDuplicateWorkerCode.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Worker, error) {
	w, err := validate(in)
	if err != nil {
		return nil, err
	}

	company, err := s.companies.FindCompany(ctx, w.CompanyID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownCompany
	}
	if err != nil {
		return nil, fmt.Errorf("find company: %w", err)
	}

	if _, err := s.store.FindWorkerByCode(ctx, w.Code); err == nil {
		return nil, ErrDuplicateWorkerCode
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check worker code: %w", err)
	}

	if err := s.store.CreateWorker(ctx, w); err != nil {
		// Lost a race with another station registering the same code.
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateWorkerCode
		}
		return nil, fmt.Errorf("create worker: %w", err)
	}
	w.Company = &company
	return w, nil
}

func (s *Service) Get(ctx context.Context, code string) (*models.Worker, error) {
	return s.store.FindWorkerByCode(ctx, strings.TrimSpace(code))
}

func validate(in RegisterInput) (*models.Worker, error) {
	if in.CompanyID == 0 {
		return nil, &ValidationError{Field: "company_id", Message: "Debe seleccionar una empresa"}
	}
	code := strings.TrimSpace(in.Code)
	if !codePattern.MatchString(code) {
		return nil, &ValidationError{Field: "code", Message: "El DNI debe tener 8 digitos numericos"}
	}
	first := strings.TrimSpace(in.FirstName)
	if first == "" {
		return nil, &ValidationError{Field: "first_name", Message: "Ingrese los nombres"}
	}
	last := strings.TrimSpace(in.LastName)
	if last == "" {
		return nil, &ValidationError{Field: "last_name", Message: "Ingrese los apellidos"}
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = "worker"
	}

	quota := models.DefaultDailyQuota
	if in.DailyQuota != nil {
		quota = *in.DailyQuota
	}
	if quota <= 0 {
		return nil, &ValidationError{Field: "daily_quota", Message: "El limite de comidas debe ser un numero positivo"}
	}

	status := models.WorkerActive
	if in.Status != "" {
		switch models.WorkerStatus(strings.ToLower(strings.TrimSpace(in.Status))) {
		case models.WorkerActive, "activo":
			status = models.WorkerActive
		case models.WorkerInactive, "inactivo":
			status = models.WorkerInactive
		default:
			return nil, &ValidationError{Field: "status", Message: "Estado invalido"}
		}
	}

	return &models.Worker{
		CompanyID:  in.CompanyID,
		Code:       code,
		FirstName:  first,
		LastName:   last,
		Role:       role,
		DailyQuota: quota,
		Status:     status,
	}, nil
}
