package tokenstore

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save("tok-1"))
	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Delete())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting an empty slot is not an error
	require.NoError(t, store.Delete())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(""))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, NewKeyringStore("localhost:8000"))
}

func TestKeyringStore_PerHost(t *testing.T) {
	keyring.MockInit()

	a := NewKeyringStore("a.test")
	b := NewKeyringStore("b.test")
	require.NoError(t, a.Save("tok-a"))

	_, err := b.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCookieStore(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	exerciseStore(t, NewCookieStore(rec, req, CookieOptions{MaxAge: time.Hour}))
}

func TestCookieStore_ReadsRequestCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "from-browser"})

	store := NewCookieStore(httptest.NewRecorder(), req, CookieOptions{})
	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-browser", token)
}

func TestCookieStore_SaveSetsCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	store := NewCookieStore(rec, req, CookieOptions{Secure: true, MaxAge: 7 * 24 * time.Hour})
	require.NoError(t, store.Save("tok-1"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "tok-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 7*24*60*60, cookies[0].MaxAge)
}

func TestCookieStore_DeleteExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "from-browser"})

	store := NewCookieStore(rec, req, CookieOptions{})
	require.NoError(t, store.Delete())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
