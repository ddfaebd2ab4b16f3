package model

import (
	"time"

	"sevabook/pkg/date"
)

// Booking reserves a single pooja slot. One calendar date holds at most one
// record with status "booked"; the date is the whole identity of the slot.
type Booking struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SevakarthaName string    `json:"sevakartha_name" bson:"sevakartha_name" validate:"required,max=100"`
	Department     string    `json:"department" bson:"department" validate:"required,max=100"`
	SevaType       string    `json:"seva_type" bson:"seva_type" validate:"required,max=100"`
	PoojaDate      date.Date `json:"pooja_date" bson:"pooja_date" validate:"-"`

	// Denormalized parts of PoojaDate, re-derived on every create.
	Day   int `json:"day" bson:"day"`
	Month int `json:"month" bson:"month"`
	Year  int `json:"year" bson:"year"`

	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at"`
}

// DeriveDateParts recomputes day/month/year from PoojaDate so the
// denormalized columns can never drift from the date itself.
func (b *Booking) DeriveDateParts() {
	b.Day = b.PoojaDate.Day
	b.Month = int(b.PoojaDate.Month)
	b.Year = b.PoojaDate.Year
}
