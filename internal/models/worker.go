package models

import (
	"strings"
	"time"
)

type WorkerStatus string

const (
	WorkerActive   WorkerStatus = "active"
	WorkerInactive WorkerStatus = "inactive"
)

// DefaultDailyQuota is the meal limit given to workers registered without one.
const DefaultDailyQuota = 3

type Worker struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	CompanyID uint     `gorm:"index;not null" json:"company_id"`
	Company   *Company `json:"company,omitempty"`

	// Site-issued code (DNI), 8 digits.
	Code       string       `gorm:"size:8;not null;uniqueIndex" json:"code"`
	FirstName  string       `gorm:"size:100;not null" json:"first_name"`
	LastName   string       `gorm:"size:100;not null" json:"last_name"`
	Role       string       `gorm:"size:50;not null;default:worker" json:"role"`
	DailyQuota int          `gorm:"not null;default:3" json:"daily_quota"`
	Status     WorkerStatus `gorm:"size:10;not null;default:active" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (w Worker) FullName() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}

func (w Worker) IsActive() bool {
	return w.Status == WorkerActive
}
