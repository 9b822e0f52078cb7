package models

import "time"

type MealStatus string

const MealRegistered MealStatus = "registered"

// DateLayout is the calendar-date format stored in Date columns.
const DateLayout = "2006-01-02"

// MealRecord is one individual meal served to a scanned worker.
type MealRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	WorkerID     uint       `gorm:"not null;index:idx_meal_worker_date,priority:1" json:"worker_id"`
	Worker       *Worker    `json:"worker,omitempty"`
	ShiftID      uint       `gorm:"not null;index" json:"shift_id"`
	Shift        *Shift     `json:"shift,omitempty"`
	Date         string     `gorm:"size:10;not null;index:idx_meal_worker_date,priority:2" json:"date"`
	RegisteredAt time.Time  `gorm:"not null;index" json:"registered_at"`
	OperatorID   uint       `gorm:"not null;index" json:"operator_id"`
	Status       MealStatus `gorm:"size:20;not null" json:"status"`
	Validated    bool       `gorm:"not null;default:false" json:"validated"`
	CreatedAt    time.Time  `json:"created_at"`
}

// BulkMealRecord registers Quantity meals for a whole company in one shift.
// At most one exists per (company, shift, date).
type BulkMealRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CompanyID    uint      `gorm:"not null;uniqueIndex:idx_bulk_company_shift_date,priority:1" json:"company_id"`
	Company      *Company  `json:"company,omitempty"`
	ShiftID      uint      `gorm:"not null;uniqueIndex:idx_bulk_company_shift_date,priority:2" json:"shift_id"`
	Shift        *Shift    `json:"shift,omitempty"`
	Date         string    `gorm:"size:10;not null;uniqueIndex:idx_bulk_company_shift_date,priority:3" json:"date"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	RegisteredAt time.Time `gorm:"not null;index" json:"registered_at"`
	OperatorID   uint      `gorm:"not null;index" json:"operator_id"`
	CreatedAt    time.Time `json:"created_at"`
}
