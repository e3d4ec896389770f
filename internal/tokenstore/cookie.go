package tokenstore

import (
	"errors"
	"net/http"
	"time"
)

// CookieName is the fixed key of the persisted token slot in the browser
const CookieName = "authTokenSkillCred"

// CookieOptions controls the persisted cookie
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// CookieStore is the visitor's token slot for the lifetime of one request.
// Writes are visible to later Loads in the same request.
type CookieStore struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions

	written bool
	value   string
}

// NewCookieStore binds the slot to one request/response pair
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	return &CookieStore{w: w, r: r, opts: opts}
}

func (s *CookieStore) Load() (string, error) {
	if s.written {
		if s.value == "" {
			return "", ErrNotFound
		}
		return s.value, nil
	}

	cookie, err := s.r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	if cookie.Value == "" {
		return "", ErrNotFound
	}
	return cookie.Value, nil
}

func (s *CookieStore) Save(token string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	s.written = true
	s.value = token
	return nil
}

func (s *CookieStore) Delete() error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	s.written = true
	s.value = ""
	return nil
}
