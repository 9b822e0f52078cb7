package models

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleOperator UserRole = "operator"
)

// User is a cafeteria operator allowed to register meals.
type User struct {
	ID           uint     `gorm:"primaryKey"`
	CompanyID    *uint `gorm:"index"`
	Company      *Company
	Name         string   `gorm:"size:100;not null"`
	Username     string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
