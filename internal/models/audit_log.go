package models

import "time"

type AuditKind string

const (
	AuditKindIndividual AuditKind = "individual"
	AuditKindBulk       AuditKind = "bulk"
)

// AuditEntry records which operator created which meal record.
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Key is generated once per registration so a retried write is idempotent.
	Key string `gorm:"size:36;not null;uniqueIndex" json:"key"`

	OperatorID uint      `gorm:"not null;index" json:"operator_id"`
	Kind       AuditKind `gorm:"size:20;not null;index" json:"kind"`

	// Exactly one of these is set, depending on Kind.
	MealRecordID     *uint `gorm:"index" json:"meal_record_id"`
	BulkMealRecordID *uint `gorm:"index" json:"bulk_meal_record_id"`

	Description string `gorm:"size:255" json:"description"`
}

// RecordID returns the id of the referenced meal or bulk record.
func (e AuditEntry) RecordID() uint {
	switch {
	case e.MealRecordID != nil:
		return *e.MealRecordID
	case e.BulkMealRecordID != nil:
		return *e.BulkMealRecordID
	}
	return 0
}
