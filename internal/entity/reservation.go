package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// ReservationStatus is the lifecycle state of a booking.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
	ReservationNoShow    ReservationStatus = "no_show"
)

// IsValid reports whether s is a known reservation status.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationConfirmed, ReservationCancelled, ReservationCompleted, ReservationNoShow:
		return true
	}
	return false
}

// CanTransitionTo reports whether a reservation may move from s to target.
// Only confirmed reservations change; everything else is final.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	if s != ReservationConfirmed {
		return false
	}
	switch target {
	case ReservationCancelled, ReservationCompleted, ReservationNoShow:
		return true
	}
	return false
}

// Reservation books a table for a party at a given time.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID              string            `bun:"id,pk"`
	TableID         string            `bun:"table_id,notnull"`
	CustomerName    string            `bun:"customer_name,notnull"`
	CustomerPhone   *string           `bun:"customer_phone"`
	PartySize       int               `bun:"party_size,notnull"`
	ReservationTime time.Time         `bun:"reservation_time,notnull"`
	Status          ReservationStatus `bun:"status,notnull"`
	Notes           *string           `bun:"notes"`
	CreatedAt       time.Time         `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time         `bun:"updated_at,nullzero"`
}
