package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaticfringe9/openpan/internal/api"
	"github.com/lunaticfringe9/openpan/internal/credstore"
)

func TestSessionTokenLifecycle(t *testing.T) {
	s := NewSession()
	assert.Empty(t, s.Token())

	s.SetToken("Bearer abc")
	assert.Equal(t, "Bearer abc", s.Token())

	s.Clear()
	assert.Empty(t, s.Token())
}

func TestSessionLoginUUIDStable(t *testing.T) {
	s := NewSession()
	id := s.LoginUUID()

	assert.Len(t, id, 32, "hex uuid without dashes")
	assert.NotContains(t, id, "-")
	assert.Equal(t, id, s.LoginUUID())

	assert.NotEqual(t, id, NewSession().LoginUUID())
}

// fakeAuthService emulates sign_in plus the listing probe auto-login uses
// for token validation.
type fakeAuthService struct {
	t *testing.T

	validTokens map[string]bool
	issueToken  string
	rejectLogin bool

	mu         sync.Mutex
	signIns    int
	probes     int
	lastSignIn map[string]any

	srv *httptest.Server
}

func newFakeAuthService(t *testing.T) *fakeAuthService {
	f := &fakeAuthService{t: t, validTokens: map[string]bool{}, issueToken: "fresh-token"}

	mux := http.NewServeMux()
	mux.HandleFunc(api.EndpointSignIn, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.signIns++
		f.lastSignIn = body
		f.mu.Unlock()

		if f.rejectLogin {
			writeJSON(w, api.SignInResponse{Code: 401, Message: "wrong password"})
			return
		}
		writeJSON(w, api.SignInResponse{Code: 200, Data: &api.SignInData{Token: f.issueToken}})
	})
	mux.HandleFunc(api.EndpointFileList, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.probes++
		f.mu.Unlock()

		if f.validTokens[r.Header.Get("authorization")] {
			writeJSON(w, api.FileListResponse{Code: 0, Data: &api.FileListData{}})
			return
		}
		writeJSON(w, api.FileListResponse{Code: 401, Message: "token expired"})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakeAuthService) authenticator(t *testing.T) (*Authenticator, *Session, *credstore.Store) {
	store, err := credstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	session := NewSession()
	client := api.NewClient(f.srv.URL, "test-agent", session)
	return NewAuthenticator(client, session, store), session, store
}

func TestLoginStoresTokenAndCredentials(t *testing.T) {
	f := newFakeAuthService(t)
	authn, session, store := f.authenticator(t)

	require.NoError(t, authn.Login(context.Background(), "alice", "s3cret"))

	assert.Equal(t, "Bearer fresh-token", session.Token())
	assert.Equal(t, float64(1), f.lastSignIn["type"])
	assert.Equal(t, "alice", f.lastSignIn["passport"])

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "s3cret", creds.Password)
	assert.Equal(t, "Bearer fresh-token", creds.Token)
}

func TestLoginRejected(t *testing.T) {
	f := newFakeAuthService(t)
	f.rejectLogin = true
	authn, session, _ := f.authenticator(t)

	err := authn.Login(context.Background(), "alice", "wrong")

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int64(401), apiErr.Code)
	assert.Empty(t, session.Token())
}

func TestAutoLoginReusesValidToken(t *testing.T) {
	f := newFakeAuthService(t)
	f.validTokens["Bearer saved-token"] = true
	authn, session, store := f.authenticator(t)

	require.NoError(t, store.Save(credstore.Credentials{
		Username: "alice", Password: "s3cret", Token: "Bearer saved-token",
	}))

	ok, err := authn.TryAutoLogin(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bearer saved-token", session.Token())
	assert.Equal(t, 0, f.signIns, "a valid token skips the password exchange")
}

func TestAutoLoginFallsBackToPassword(t *testing.T) {
	f := newFakeAuthService(t)
	authn, session, store := f.authenticator(t)

	require.NoError(t, store.Save(credstore.Credentials{
		Username: "alice", Password: "s3cret", Token: "Bearer stale-token",
	}))

	ok, err := authn.TryAutoLogin(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.probes)
	assert.Equal(t, 1, f.signIns)
	assert.Equal(t, "Bearer fresh-token", session.Token())

	// Re-login refreshes stored credentials too.
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "Bearer fresh-token", creds.Token)
}

func TestAutoLoginNoStoredCredentials(t *testing.T) {
	f := newFakeAuthService(t)
	authn, _, _ := f.authenticator(t)

	ok, err := authn.TryAutoLogin(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, f.signIns)
}

func TestAutoLoginPasswordAlsoStale(t *testing.T) {
	f := newFakeAuthService(t)
	f.rejectLogin = true
	authn, session, store := f.authenticator(t)

	require.NoError(t, store.Save(credstore.Credentials{
		Username: "alice", Password: "old-password", Token: "Bearer stale-token",
	}))

	ok, err := authn.TryAutoLogin(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, session.Token(), "a failed auto-login leaves no half-valid token behind")
}

func TestLogoutClearsEverything(t *testing.T) {
	f := newFakeAuthService(t)
	authn, session, store := f.authenticator(t)

	require.NoError(t, authn.Login(context.Background(), "alice", "s3cret"))
	require.NoError(t, authn.Logout())

	assert.Empty(t, session.Token())
	_, err := store.Load()
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}
