// Package session owns the authenticated user's state: a durable
// key-value record of identity and token material, published to the
// rest of the application as observable values.
package session

// Session is the in-memory representation of the authenticated user.
// It is either fully absent (logged out) or carries all identity
// fields; token fields may lag only transiently during a refresh.
type Session struct {
	UserID      int64
	Email       string
	FullName    string
	IsAdmin     bool
	TotalPoints int

	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int
}

// Durable storage keys. Absence of the identity keys (user_id,
// user_email, user_full_name) on load means "no session".
const (
	keyUserID      = "user_id"
	keyEmail       = "user_email"
	keyFullName    = "user_full_name"
	keyIsAdmin     = "user_is_admin"
	keyTotalPoints = "user_total_points"
	keyAccessToken = "access_token"
	keyRefresh     = "refresh_token"
	keyTokenType   = "token_type"
	keyExpiresIn   = "expires_in"
)
