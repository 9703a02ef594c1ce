package model

import (
	"time"

	"github.com/google/uuid"

	notification "library-backend/internal/domains/notification/model"
)

type Status string

const (
	StatusOnTheWay  Status = "on the way"
	StatusDelivered Status = "delivered"
)

// Delivery carries a returned or donated copy back to the library. Type,
// reference and book snapshot are copied from the notification it answers.
type Delivery struct {
	ID             uuid.UUID                 `json:"id"`
	UserID         uuid.UUID                 `json:"user_id"`
	NotificationID uuid.UUID                 `json:"notification_id"`
	Name           string                    `json:"name"`
	Address        string                    `json:"address"`
	PhoneNumber    string                    `json:"phone_number"`
	PreferredDate  time.Time                 `json:"preferred_date"`
	Latitude       float64                   `json:"latitude"`
	Longitude      float64                   `json:"longitude"`
	Status         Status                    `json:"status"`
	Type           notification.Type         `json:"type"`
	ReferenceID    string                    `json:"reference_id,omitempty"`
	Book           notification.BookSnapshot `json:"book"`
	DeliveredAt    *time.Time                `json:"delivered_at,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// CarriesBook reports whether confirming the delivery is a physical intake.
func (d *Delivery) CarriesBook() bool {
	return d.Type == notification.TypeReturn || d.Type == notification.TypeDonation
}
