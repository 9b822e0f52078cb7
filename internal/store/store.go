// Package store persists cafeteria data through GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"comedor-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// DefaultTimeout bounds every store call when none is configured.
const DefaultTimeout = 5 * time.Second

type Gorm struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGorm(db *gorm.DB, timeout time.Duration) *Gorm {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gorm{db: db, timeout: timeout}
}

// DB exposes the handle for read models (history, dashboard).
func (s *Gorm) DB() *gorm.DB {
	return s.db
}

func (s *Gorm) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

func (s *Gorm) FindWorkerByCode(ctx context.Context, code string) (*models.Worker, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var w models.Worker
	if err := db.Preload("Company").Where("code = ?", code).First(&w).Error; err != nil {
		return nil, translate(err, "find worker by code")
	}
	return &w, nil
}

func (s *Gorm) FindWorkerByID(ctx context.Context, id uint) (*models.Worker, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var w models.Worker
	if err := db.First(&w, id).Error; err != nil {
		return nil, translate(err, "find worker by id")
	}
	return &w, nil
}

func (s *Gorm) CreateWorker(ctx context.Context, w *models.Worker) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	if err := db.Create(w).Error; err != nil {
		return translate(err, "create worker")
	}
	return nil
}

func (s *Gorm) CountMealRecords(ctx context.Context, workerID uint, date string) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.MealRecord{}).
		Where("worker_id = ? AND date = ?", workerID, date).
		Count(&count).Error; err != nil {
		return 0, translate(err, "count meal records")
	}
	return count, nil
}

func (s *Gorm) InsertMealRecord(ctx context.Context, rec *models.MealRecord) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	// UTC keeps range filters consistent on SQLite, which compares text.
	rec.RegisteredAt = rec.RegisteredAt.UTC()
	if err := db.Omit("Worker", "Shift").Create(rec).Error; err != nil {
		return translate(err, "insert meal record")
	}
	return nil
}

func (s *Gorm) FindBulkRecord(ctx context.Context, companyID, shiftID uint, date string) (*models.BulkMealRecord, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec models.BulkMealRecord
	if err := db.Where("company_id = ? AND shift_id = ? AND date = ?", companyID, shiftID, date).
		First(&rec).Error; err != nil {
		return nil, translate(err, "find bulk record")
	}
	return &rec, nil
}

func (s *Gorm) InsertBulkRecord(ctx context.Context, rec *models.BulkMealRecord) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	rec.RegisteredAt = rec.RegisteredAt.UTC()
	if err := db.Omit("Company", "Shift").Create(rec).Error; err != nil {
		return translate(err, "insert bulk record")
	}
	return nil
}

func (s *Gorm) InsertAuditEntry(ctx context.Context, e *models.AuditEntry) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	if err := db.Create(e).Error; err != nil {
		return translate(err, "insert audit entry")
	}
	return nil
}

func (s *Gorm) ListCompanies(ctx context.Context) ([]models.Company, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var out []models.Company
	if err := db.Order("name asc").Find(&out).Error; err != nil {
		return nil, translate(err, "list companies")
	}
	return out, nil
}

func (s *Gorm) FindCompany(ctx context.Context, id uint) (*models.Company, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var c models.Company
	if err := db.First(&c, id).Error; err != nil {
		return nil, translate(err, "find company")
	}
	return &c, nil
}

func (s *Gorm) CreateCompany(ctx context.Context, c *models.Company) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	if err := db.Create(c).Error; err != nil {
		return translate(err, "create company")
	}
	return nil
}

func (s *Gorm) ListShifts(ctx context.Context) ([]models.Shift, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var out []models.Shift
	if err := db.Order("start_minute asc").Find(&out).Error; err != nil {
		return nil, translate(err, "list shifts")
	}
	return out, nil
}

func (s *Gorm) CreateShift(ctx context.Context, sh *models.Shift) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	if err := db.Create(sh).Error; err != nil {
		return translate(err, "create shift")
	}
	return nil
}

func (s *Gorm) FindShift(ctx context.Context, id uint) (*models.Shift, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var sh models.Shift
	if err := db.First(&sh, id).Error; err != nil {
		return nil, translate(err, "find shift")
	}
	return &sh, nil
}

// TimeRange bounds RegisteredAt/CreatedAt; a zero end is open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (r TimeRange) apply(db *gorm.DB, column string) *gorm.DB {
	if !r.From.IsZero() {
		db = db.Where(column+" >= ?", r.From.UTC())
	}
	if !r.To.IsZero() {
		db = db.Where(column+" < ?", r.To.UTC())
	}
	return db
}

// ListMealHistory returns individual records newest first, with worker,
// company and shift loaded. limit <= 0 means no limit.
func (s *Gorm) ListMealHistory(ctx context.Context, r TimeRange, limit int) ([]models.MealRecord, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	q := r.apply(db.Model(&models.MealRecord{}), "registered_at").
		Preload("Worker.Company").
		Preload("Shift").
		Order("registered_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []models.MealRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "list meal history")
	}
	return out, nil
}

func (s *Gorm) ListBulkHistory(ctx context.Context, r TimeRange, limit int) ([]models.BulkMealRecord, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	q := r.apply(db.Model(&models.BulkMealRecord{}), "registered_at").
		Preload("Company").
		Preload("Shift").
		Order("registered_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []models.BulkMealRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "list bulk history")
	}
	return out, nil
}

type AuditFilter struct {
	OperatorID uint
	Kind       models.AuditKind
	Range      TimeRange
	Limit      int
}

func (s *Gorm) ListAuditEntries(ctx context.Context, f AuditFilter) ([]models.AuditEntry, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	q := f.Range.apply(db.Model(&models.AuditEntry{}), "created_at")
	if f.OperatorID != 0 {
		q = q.Where("operator_id = ?", f.OperatorID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.AuditEntry
	if err := q.Order("created_at desc").Order("id desc").Find(&out).Error; err != nil {
		return nil, translate(err, "list audit entries")
	}
	return out, nil
}

// MealCount is the number of meals served on one date in one shift.
type MealCount struct {
	Date       string
	ShiftID    uint
	Individual int64
	Bulk       int64
}

func (c MealCount) Total() int64 { return c.Individual + c.Bulk }

// CountMealsByDate aggregates individual records and bulk quantities for
// dates in [fromDate, toDate], ordered by date then shift.
func (s *Gorm) CountMealsByDate(ctx context.Context, fromDate, toDate string) ([]MealCount, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	type row struct {
		Date    string
		ShiftID uint
		N       int64
	}

	var individual []row
	if err := db.Model(&models.MealRecord{}).
		Select("date, shift_id, COUNT(*) AS n").
		Where("date >= ? AND date <= ?", fromDate, toDate).
		Group("date, shift_id").
		Scan(&individual).Error; err != nil {
		return nil, translate(err, "count individual meals")
	}

	var bulk []row
	if err := db.Model(&models.BulkMealRecord{}).
		Select("date, shift_id, COALESCE(SUM(quantity), 0) AS n").
		Where("date >= ? AND date <= ?", fromDate, toDate).
		Group("date, shift_id").
		Scan(&bulk).Error; err != nil {
		return nil, translate(err, "count bulk meals")
	}

	type key struct {
		date    string
		shiftID uint
	}
	byKey := make(map[key]*MealCount)
	get := func(r row) *MealCount {
		k := key{r.Date, r.ShiftID}
		if c, ok := byKey[k]; ok {
			return c
		}
		c := &MealCount{Date: r.Date, ShiftID: r.ShiftID}
		byKey[k] = c
		return c
	}
	for _, r := range individual {
		get(r).Individual += r.N
	}
	for _, r := range bulk {
		get(r).Bulk += r.N
	}

	out := make([]MealCount, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ShiftID < out[j].ShiftID
	})
	return out, nil
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
