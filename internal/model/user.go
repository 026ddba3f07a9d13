package model

import "time"

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	IsAdmin      bool       `json:"is_admin"`
	TotalPoints  int        `json:"total_points"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	DisabledAt   *time.Time `json:"-"` // non-null = user disabled, cannot log in
}

// Profile is the wire shape embedded in the login response and returned by /api/me.
type Profile struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	IsAdmin     bool   `json:"is_admin"`
	TotalPoints int    `json:"total_points"`
}

func (u *User) ToProfile() Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsAdmin:     u.IsAdmin,
		TotalPoints: u.TotalPoints,
	}
}
