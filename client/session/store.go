package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/loyalty/client/session/prefs"
	"github.com/loyalty/internal/logger"
)

// Store is the single authoritative holder of the current Session.
// The durable write for an operation always completes before the
// corresponding in-memory publish, so storage is never behind what
// observers see. Storage errors propagate to the caller.
type Store struct {
	prefs   prefs.Store
	session *Value[*Session]
	token   *Value[string]

	// writeMu serializes mutating operations so a save never
	// interleaves with a concurrent clear.
	writeMu sync.Mutex

	ready chan struct{}
}

// New constructs the store and kicks off the initial load in the
// background. Readers may observe "no session" until Ready closes,
// even when a session was previously persisted.
func New(p prefs.Store) *Store {
	s := &Store{
		prefs:   p,
		session: NewValue[*Session](nil),
		token:   NewValue(""),
		ready:   make(chan struct{}),
	}
	go s.load()
	return s
}

// Ready closes once the initial load has finished (successfully or not).
func (s *Store) Ready() <-chan struct{} { return s.ready }

// Session exposes the observable current session (nil when absent).
func (s *Store) Session() *Value[*Session] { return s.session }

// AccessToken exposes the observable access token ("" when absent).
func (s *Store) AccessToken() *Value[string] { return s.token }

// Current returns the latest published session, or nil when logged out.
func (s *Store) Current() *Session { return s.session.Get() }

// IsLoggedIn reports whether a non-empty access token is published.
func (s *Store) IsLoggedIn() bool { return s.token.Get() != "" }

func (s *Store) load() {
	defer close(s.ready)
	defer logger.DeferLogDuration("session.load", time.Now())()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	values, err := s.prefs.Load(ctx)
	if err != nil {
		logger.Errorf("session load: %v", err)
		return
	}

	// The token observable is published regardless of whether a full
	// session can be reconstructed.
	s.token.Set(values[keyAccessToken])

	sess, ok := decode(values)
	if !ok {
		return
	}
	s.session.Set(sess)
}

// SaveLoginResult durably writes every field of the session and then
// publishes it. A failed write leaves the published state untouched.
func (s *Store) SaveLoginResult(ctx context.Context, sess Session) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.prefs.Save(ctx, encode(&sess)); err != nil {
		return err
	}
	s.session.Set(&sess)
	s.token.Set(sess.AccessToken)
	return nil
}

// UpdateAccessToken durably overwrites only the access token, then
// republishes the token observable. Other fields are unchanged.
func (s *Store) UpdateAccessToken(ctx context.Context, newToken string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	values, err := s.prefs.Load(ctx)
	if err != nil {
		return err
	}
	values[keyAccessToken] = newToken
	if err := s.prefs.Save(ctx, values); err != nil {
		return err
	}

	if cur := s.session.Get(); cur != nil {
		next := *cur
		next.AccessToken = newToken
		s.session.Set(&next)
	}
	s.token.Set(newToken)
	return nil
}

// Clear durably erases all persisted fields and publishes the absent
// state. Safe to call when no session exists.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.prefs.Clear(ctx); err != nil {
		return err
	}
	s.session.Set(nil)
	s.token.Set("")
	return nil
}

func encode(sess *Session) map[string]string {
	return map[string]string{
		keyUserID:      strconv.FormatInt(sess.UserID, 10),
		keyEmail:       sess.Email,
		keyFullName:    sess.FullName,
		keyIsAdmin:     strconv.FormatBool(sess.IsAdmin),
		keyTotalPoints: strconv.Itoa(sess.TotalPoints),
		keyAccessToken: sess.AccessToken,
		keyRefresh:     sess.RefreshToken,
		keyTokenType:   sess.TokenType,
		keyExpiresIn:   strconv.Itoa(sess.ExpiresIn),
	}
}

// decode reconstructs a Session from persisted values. Returns false
// when any identity field is missing.
func decode(values map[string]string) (*Session, bool) {
	rawID, okID := values[keyUserID]
	email, okEmail := values[keyEmail]
	fullName, okName := values[keyFullName]
	if !okID || !okEmail || !okName || rawID == "" || email == "" || fullName == "" {
		return nil, false
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, false
	}

	isAdmin, _ := strconv.ParseBool(values[keyIsAdmin])
	totalPoints, _ := strconv.Atoi(values[keyTotalPoints])
	expiresIn, _ := strconv.Atoi(values[keyExpiresIn])

	return &Session{
		UserID:       id,
		Email:        email,
		FullName:     fullName,
		IsAdmin:      isAdmin,
		TotalPoints:  totalPoints,
		AccessToken:  values[keyAccessToken],
		RefreshToken: values[keyRefresh],
		TokenType:    values[keyTokenType],
		ExpiresIn:    expiresIn,
	}, true
}
