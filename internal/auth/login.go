package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/lunaticfringe9/openpan/internal/api"
	"github.com/lunaticfringe9/openpan/internal/credstore"
	"github.com/lunaticfringe9/openpan/pkg/logging"
)

// Authenticator runs the sign-in, auto-login and logout flows and keeps the
// session token and the credential store in sync.
type Authenticator struct {
	client  *api.Client
	session *Session
	store   *credstore.Store
}

// NewAuthenticator wires the login flow. store may be nil, in which case
// credentials are not persisted.
func NewAuthenticator(client *api.Client, session *Session, store *credstore.Store) *Authenticator {
	return &Authenticator{client: client, session: session, store: store}
}

// Login signs in with username and password, installs the bearer token in
// the session and persists the credentials for auto-login.
func (a *Authenticator) Login(ctx context.Context, username, password string) error {
	logging.Log.Infof("signing in user: %s", username)

	payload := map[string]any{
		"type":     1,
		"passport": username,
		"password": password,
	}

	var res api.SignInResponse
	if err := a.client.PostJSONWithToken(ctx, api.EndpointSignIn, "", payload, &res); err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	if res.Code != 200 {
		logging.Log.Warnf("sign in rejected: %s", res.Message)
		return &api.APIError{Code: res.Code, Message: res.Message}
	}
	if res.Data == nil {
		return fmt.Errorf("%w: sign in returned no data", api.ErrProtocol)
	}

	token := "Bearer " + res.Data.Token
	a.session.SetToken(token)

	if a.store != nil {
		creds := credstore.Credentials{Username: username, Password: password, Token: token}
		if err := a.store.Save(creds); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
	}

	logging.Log.Info("sign in succeeded, credentials saved")
	return nil
}

// TryAutoLogin restores a session from stored credentials. It first probes
// the saved token with a one-item listing call; if the token is stale it
// falls back to a password re-login. Returns false when no stored
// credentials exist or neither strategy works.
func (a *Authenticator) TryAutoLogin(ctx context.Context) (bool, error) {
	if a.store == nil {
		return false, nil
	}

	creds, err := a.store.Load()
	if errors.Is(err, credstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading credentials: %w", err)
	}

	if creds.Token != "" && a.tokenValid(ctx, creds.Token) {
		a.session.SetToken(creds.Token)
		logging.Log.Info("auto-login: stored token still valid")
		return true, nil
	}

	logging.Log.Info("auto-login: token stale, re-login with password")
	if err := a.Login(ctx, creds.Username, creds.Password); err != nil {
		a.session.Clear()
		logging.Log.Warnf("auto-login: password re-login failed: %v", err)
		return false, nil
	}
	return true, nil
}

// tokenValid probes the saved token with the cheapest authenticated call
// the service offers: a single-item root listing.
func (a *Authenticator) tokenValid(ctx context.Context, token string) bool {
	query := url.Values{
		"driveId":              {"0"},
		"limit":                {"1"},
		"next":                 {"0"},
		"orderBy":              {"file_id"},
		"orderDirection":       {"desc"},
		"parentFileId":         {"0"},
		"trashed":              {"false"},
		"SearchData":           {""},
		"Page":                 {"1"},
		"OnlyLookAbnormalFile": {"0"},
	}

	var res api.FileListResponse
	if err := a.client.GetJSONWithToken(ctx, api.EndpointFileList, token, query, &res); err != nil {
		return false
	}
	return res.Code == 0
}

// Logout clears the session token and removes stored credentials.
func (a *Authenticator) Logout() error {
	a.session.Clear()
	if a.store != nil {
		if err := a.store.Delete(); err != nil {
			return fmt.Errorf("clearing credentials: %w", err)
		}
	}
	logging.Log.Info("logged out")
	return nil
}
