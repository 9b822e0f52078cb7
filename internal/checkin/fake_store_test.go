package checkin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"comedor-backend/internal/models"
	"comedor-backend/internal/store"
)

var errConnRefused = errors.New("dial tcp 10.0.0.5:5432: connection refused")

// memStore is an in-memory Store with per-operation failure injection.
type memStore struct {
	mu        sync.Mutex
	nextID    uint
	companies []models.Company
	shifts    []models.Shift
	workers   []models.Worker
	meals     []models.MealRecord
	bulks     []models.BulkMealRecord
	audits    []models.AuditEntry
	failOn    map[string]error

	// afterCount runs after CountMealRecords read its value, outside the lock.
	afterCount func()
}

func newMemStore() *memStore {
	s := &memStore{failOn: map[string]error{}}
	for _, sh := range models.DefaultShifts() {
		sh.ID = s.id()
		s.shifts = append(s.shifts, sh)
	}
	return s
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[op] = err
}

func (s *memStore) injected(op string) error {
	return s.failOn[op]
}

func (s *memStore) addCompany(name string) models.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Company{ID: s.id(), Name: name}
	s.companies = append(s.companies, c)
	return c
}

func (s *memStore) addWorker(code string, company models.Company, quota int, status models.WorkerStatus) models.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := models.Worker{
		ID: s.id(), CompanyID: company.ID, Code: code,
		FirstName: "Juan", LastName: "Quispe", Role: "worker",
		DailyQuota: quota, Status: status,
	}
	s.workers = append(s.workers, w)
	return w
}

func (s *memStore) shiftByName(name models.ShiftName) models.Shift {
	for _, sh := range s.shifts {
		if sh.Name == name {
			return sh
		}
	}
	panic("unknown shift " + name)
}

func (s *memStore) setStatus(workerID uint, status models.WorkerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.workers {
		if s.workers[i].ID == workerID {
			s.workers[i].Status = status
		}
	}
}

func (s *memStore) auditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audits)
}

func (s *memStore) FindWorkerByCode(_ context.Context, code string) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("FindWorkerByCode"); err != nil {
		return nil, err
	}
	for _, w := range s.workers {
		if w.Code == code {
			out := w
			for _, c := range s.companies {
				if c.ID == w.CompanyID {
					company := c
					out.Company = &company
				}
			}
			return &out, nil
		}
	}
	return nil, fmt.Errorf("find worker by code: %w", store.ErrNotFound)
}

func (s *memStore) FindWorkerByID(_ context.Context, id uint) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("FindWorkerByID"); err != nil {
		return nil, err
	}
	for _, w := range s.workers {
		if w.ID == id {
			out := w
			return &out, nil
		}
	}
	return nil, fmt.Errorf("find worker by id: %w", store.ErrNotFound)
}

func (s *memStore) CountMealRecords(_ context.Context, workerID uint, date string) (int64, error) {
	s.mu.Lock()
	if err := s.injected("CountMealRecords"); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	var n int64
	for _, m := range s.meals {
		if m.WorkerID == workerID && m.Date == date {
			n++
		}
	}
	hook := s.afterCount
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return n, nil
}

func (s *memStore) InsertMealRecord(_ context.Context, rec *models.MealRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("InsertMealRecord"); err != nil {
		return err
	}
	rec.ID = s.id()
	s.meals = append(s.meals, *rec)
	return nil
}

func (s *memStore) FindBulkRecord(_ context.Context, companyID, shiftID uint, date string) (*models.BulkMealRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("FindBulkRecord"); err != nil {
		return nil, err
	}
	for _, b := range s.bulks {
		if b.CompanyID == companyID && b.ShiftID == shiftID && b.Date == date {
			out := b
			return &out, nil
		}
	}
	return nil, fmt.Errorf("find bulk record: %w", store.ErrNotFound)
}

func (s *memStore) InsertBulkRecord(_ context.Context, rec *models.BulkMealRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("InsertBulkRecord"); err != nil {
		return err
	}
	for _, b := range s.bulks {
		if b.CompanyID == rec.CompanyID && b.ShiftID == rec.ShiftID && b.Date == rec.Date {
			return fmt.Errorf("insert bulk record: %w", store.ErrDuplicate)
		}
	}
	rec.ID = s.id()
	s.bulks = append(s.bulks, *rec)
	return nil
}

func (s *memStore) InsertAuditEntry(_ context.Context, e *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("InsertAuditEntry"); err != nil {
		return err
	}
	e.ID = s.id()
	s.audits = append(s.audits, *e)
	return nil
}

func (s *memStore) ListCompanies(context.Context) ([]models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ListCompanies"); err != nil {
		return nil, err
	}
	return append([]models.Company(nil), s.companies...), nil
}

func (s *memStore) ListShifts(context.Context) ([]models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ListShifts"); err != nil {
		return nil, err
	}
	return append([]models.Shift(nil), s.shifts...), nil
}

// barrier releases waiters once n have arrived or after timeout.
type barrier struct {
	n       int
	timeout time.Duration

	mu      sync.Mutex
	arrived int
	done    chan struct{}
}

func newBarrier(n int, timeout time.Duration) *barrier {
	return &barrier{n: n, timeout: timeout, done: make(chan struct{})}
}

func (b *barrier) wait() {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.n {
		close(b.done)
	}
	b.mu.Unlock()

	select {
	case <-b.done:
	case <-time.After(b.timeout):
	}
}

// recordingQueue collects entries handed to the audit outbox.
type recordingQueue struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (q *recordingQueue) Enqueue(e models.AuditEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
}

func (q *recordingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
