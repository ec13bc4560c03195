// Package session implements a gorilla/sessions Store whose cookie carries
// only a signed, opaque reference to a record kept server side.
package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	CookieName = "alimentos-session"

	userIDKey = "userID"
)

// Store implements sessions.Store. Only the user id survives a round trip;
// any other value placed in Session.Values is dropped on Save.
type Store struct {
	backend Backend
	codec   *TokenCodec
	ttl     time.Duration
	Options *sessions.Options
}

var _ sessions.Store = (*Store)(nil)

func NewStore(backend Backend, secret []byte, ttl time.Duration, secure bool) *Store {
	return &Store{
		backend: backend,
		codec:   NewTokenCodec(secret),
		ttl:     ttl,
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			Secure:   secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the session cached for this request, loading it on first use.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, forged or
// expired cookie yields a fresh anonymous session without error.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	if r.TLS != nil {
		opts.Secure = true
	}
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	id, err := s.codec.Decode(cookie.Value)
	if err != nil {
		return session, nil
	}

	rec, found, err := s.backend.Load(r.Context(), id)
	if err != nil {
		return session, fmt.Errorf("failed to load session: %w", err)
	}
	if !found {
		return session, nil
	}

	session.ID = id
	session.IsNew = false
	if rec.UserID > 0 {
		session.Values[userIDKey] = rec.UserID
	}
	return session, nil
}

// Save persists the record and refreshes the cookie. A negative MaxAge
// destroys the record and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Delete(ctx, session.ID); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	ttl := s.ttl
	if session.Options.MaxAge > 0 {
		ttl = time.Duration(session.Options.MaxAge) * time.Second
	}

	rec := Record{}
	if id, ok := UserID(session); ok {
		rec.UserID = id
	}
	if err := s.backend.Save(ctx, session.ID, rec, ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.codec.Encode(session.ID, ttl)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), token, session.Options))
	return nil
}

// Login binds the session to userID under a fresh id, discarding the
// record the visitor arrived with.
func (s *Store) Login(r *http.Request, w http.ResponseWriter, session *sessions.Session, userID uint) error {
	if session.ID != "" {
		if err := s.backend.Delete(r.Context(), session.ID); err != nil {
			return fmt.Errorf("failed to rotate session: %w", err)
		}
		session.ID = ""
	}
	session.Values = map[interface{}]interface{}{userIDKey: userID}
	session.Options.MaxAge = int(s.ttl.Seconds())
	return s.Save(r, w, session)
}

// Destroy deletes the record and expires the cookie.
func (s *Store) Destroy(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	session.Options.MaxAge = -1
	session.Values = map[interface{}]interface{}{}
	return s.Save(r, w, session)
}

// UserID returns the authenticated user of session, if any.
func UserID(session *sessions.Session) (uint, bool) {
	if session == nil {
		return 0, false
	}
	id, ok := session.Values[userIDKey].(uint)
	return id, ok && id > 0
}
