package activities

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateActivityRequest schedules or logs a job for a customer.
type CreateActivityRequest struct {
	CustomerID     *string         `json:"customer_id" validate:"omitempty,min=1"`
	ActivityTypeID *int64          `json:"activity_type_id" validate:"omitempty,gt=0"`
	Description    string          `json:"description" validate:"required,max=500"`
	Status         string          `json:"status"`
	Date           *time.Time      `json:"date"`
	Technician     string          `json:"technician" validate:"max=200"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Currency       string          `json:"currency"`
	Notes          string          `json:"notes" validate:"max=1000"`
}

// UpdateActivityRequest changes the fields that are set.
type UpdateActivityRequest struct {
	CustomerID     *string          `json:"customer_id,omitempty" validate:"omitempty,min=1"`
	ActivityTypeID *int64           `json:"activity_type_id,omitempty" validate:"omitempty,gt=0"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Status         *string          `json:"status,omitempty"`
	Date           *time.Time       `json:"date,omitempty"`
	Technician     *string          `json:"technician,omitempty" validate:"omitempty,max=200"`
	TotalCost      *decimal.Decimal `json:"total_cost,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	Notes          *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ListActivitiesRequest filters activities. Empty fields match everything.
type ListActivitiesRequest struct {
	CustomerID string
	Status     string
}
