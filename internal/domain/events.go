package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingConfirmed is emitted once per successful checkout.
type BookingConfirmed struct {
	Reference   uuid.UUID  `json:"reference"`
	OwnerID     string     `json:"ownerId"`
	Items       []LineItem `json:"items"`
	Total       Money      `json:"total"`
	ConfirmedAt time.Time  `json:"confirmedAt"`
}
