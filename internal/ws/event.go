package ws

import (
	"time"

	"github.com/loyalty/internal/model"
)

type EventType string

const (
	EventPointsUpdated   EventType = "points_updated"
	EventActivityCreated EventType = "activity_created"
	EventSwapCreated     EventType = "swap_created"
)

// Event is what the server sends to the client. Payload uses typed
// structs to avoid heap-heavy map[string]any.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// PointsUpdatedPayload is sent whenever a user's balance changes.
type PointsUpdatedPayload struct {
	TotalPoints int       `json:"total_points"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason"`
	At          time.Time `json:"at"`
}

// ActivityCreatedPayload carries the new history entry.
type ActivityCreatedPayload struct {
	Activity model.Activity `json:"activity"`
}

// SwapCreatedPayload is sent after a reward redemption.
type SwapCreatedPayload struct {
	Swap        model.Swap `json:"swap"`
	TotalPoints int        `json:"total_points"`
}
