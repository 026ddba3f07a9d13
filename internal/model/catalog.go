package model

import "time"

type Reward struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Icon           string `json:"icon"`
	PointsRequired int    `json:"points_required"`
	IsAvailable    bool   `json:"is_available"`
}

type Promotion struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
