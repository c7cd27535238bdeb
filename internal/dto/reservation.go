package dto

import (
	"time"

	"github.com/Additional-Code/tableside/internal/entity"
)

// ReservationResponse represents a booking as exposed via transport layers.
type ReservationResponse struct {
	ID              string    `json:"id"`
	TableID         string    `json:"table_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   *string   `json:"customer_phone,omitempty"`
	PartySize       int       `json:"party_size"`
	ReservationTime time.Time `json:"reservation_time"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateReservationRequest books a table.
type CreateReservationRequest struct {
	TableID         string    `json:"table_id" validate:"required"`
	CustomerName    string    `json:"customer_name" validate:"required"`
	CustomerPhone   string    `json:"customer_phone"`
	PartySize       int       `json:"party_size" validate:"required,gte=1"`
	ReservationTime time.Time `json:"reservation_time" validate:"required"`
	Notes           string    `json:"notes"`
}

// UpdateReservationRequest patches a booking; absent fields are left alone.
type UpdateReservationRequest struct {
	CustomerName    *string    `json:"customer_name"`
	CustomerPhone   *string    `json:"customer_phone"`
	PartySize       *int       `json:"party_size" validate:"omitempty,gte=1"`
	ReservationTime *time.Time `json:"reservation_time"`
	Notes           *string    `json:"notes"`
	Status          *string    `json:"status" validate:"omitempty,oneof=confirmed cancelled completed no_show"`
}

func NewReservation(r entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		TableID:         r.TableID,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		PartySize:       r.PartySize,
		ReservationTime: r.ReservationTime,
		Status:          string(r.Status),
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
	}
}

func NewReservations(list []entity.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, NewReservation(r))
	}
	return out
}
