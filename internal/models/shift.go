package models

import "time"

type ShiftName string

const (
	ShiftBreakfast  ShiftName = "breakfast"
	ShiftLunch      ShiftName = "lunch"
	ShiftDinner     ShiftName = "dinner"
	ShiftColdRation ShiftName = "cold-ration"
)

// Shift is a meal service. StartMinute/EndMinute are minutes since midnight,
// both inclusive; StartMinute > EndMinute means the window crosses midnight.
type Shift struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        ShiftName `gorm:"size:20;not null;uniqueIndex" json:"name"`
	Label       string    `gorm:"size:50" json:"label"`
	StartMinute int       `gorm:"not null" json:"start_minute"`
	EndMinute   int       `gorm:"not null" json:"end_minute"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultShifts is the seed used when the shifts table is empty. The
// cold-ration row only documents its overnight window; it is also the
// fallback for every minute no other shift claims.
func DefaultShifts() []Shift {
	return []Shift{
		{Name: ShiftBreakfast, Label: "Desayuno", StartMinute: 240, EndMinute: 510},
		{Name: ShiftLunch, Label: "Almuerzo", StartMinute: 690, EndMinute: 870},
		{Name: ShiftDinner, Label: "Cena", StartMinute: 1051, EndMinute: 1380},
		{Name: ShiftColdRation, Label: "Rancho Frio", StartMinute: 1381, EndMinute: 239},
	}
}
