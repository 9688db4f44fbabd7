package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/engagements/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func authHeaderServer(t *testing.T, got chan<- string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("Authorization")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func tokenServer(t *testing.T, accessToken string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"` + accessToken + `","token_type":"bearer","refresh_token":"refresh","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewHTTPClientNone(t *testing.T) {
	cfg := config.Default()
	client, err := NewHTTPClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTimeout, client.Timeout)

	got := make(chan string, 1)
	srv := authHeaderServer(t, got)
	_, err = client.Get(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "", <-got)
}

func TestNewHTTPClientStaticToken(t *testing.T) {
	cfg := config.Default()
	cfg.Auth = config.Auth{Mode: config.AuthToken, Token: "abc123"}

	client, err := NewHTTPClient(context.Background(), cfg)
	require.NoError(t, err)

	got := make(chan string, 1)
	srv := authHeaderServer(t, got)
	_, err = client.Get(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", <-got)
}

func TestNewHTTPClientStaticTokenFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := TokenPath()
	require.NoError(t, err)
	require.NoError(t, saveToken(path, &oauth2.Token{AccessToken: "cached", TokenType: "Bearer"}))

	cfg := config.Default()
	cfg.Auth = config.Auth{Mode: config.AuthToken}
	client, err := NewHTTPClient(context.Background(), cfg)
	require.NoError(t, err)

	got := make(chan string, 1)
	srv := authHeaderServer(t, got)
	_, err = client.Get(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer cached", <-got)
}

func TestNewHTTPClientClientCredentials(t *testing.T) {
	tokens := tokenServer(t, "machine")

	cfg := config.Default()
	cfg.Auth = config.Auth{
		Mode:         config.AuthClientCredentials,
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     tokens.URL,
	}
	client, err := NewHTTPClient(context.Background(), cfg)
	require.NoError(t, err)

	got := make(chan string, 1)
	srv := authHeaderServer(t, got)
	_, err = client.Get(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer machine", <-got)
}

func TestNewHTTPClientRejectsIncompleteConfig(t *testing.T) {
	for _, a := range []config.Auth{
		{Mode: config.AuthClientCredentials},
		{Mode: config.AuthGoogle},
		{Mode: config.AuthOAuth},
		{Mode: "kerberos"},
	} {
		cfg := config.Default()
		cfg.Auth = a
		_, err := NewHTTPClient(context.Background(), cfg)
		assert.Error(t, err, a.Mode)
	}
}

// urlWriter forwards every write to a channel so the test can pick up the
// authorization URL while Login blocks.
type urlWriter chan string

func (w urlWriter) Write(p []byte) (int, error) {
	w <- string(p)
	return len(p), nil
}

func TestLoginCachesToken(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	tokens := tokenServer(t, "interactive")

	a := config.Auth{
		Mode:     config.AuthOAuth,
		ClientID: "id",
		AuthURL:  "https://idp.example.com/authorize",
		TokenURL: tokens.URL,
	}

	out := make(urlWriter, 1)
	done := make(chan error, 1)
	go func() {
		_, err := Login(context.Background(), a, LoginOptions{Listen: "127.0.0.1:0", Out: out, Timeout: 10 * time.Second})
		done <- err
	}()

	var authURL *url.URL
	select {
	case msg := <-out:
		lines := strings.Split(strings.TrimSpace(msg), "\n")
		var err error
		authURL, err = url.Parse(lines[len(lines)-1])
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no authorization URL printed")
	}

	q := authURL.Query()
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	redirect := q.Get("redirect_uri") + "?code=the-code&state=" + url.QueryEscape(q.Get("state"))
	resp, err := http.Get(redirect)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, <-done)

	tok, err := tokenFromFile(filepath.Join(home, ".config", "engagements", TokenFile))
	require.NoError(t, err)
	assert.Equal(t, "interactive", tok.AccessToken)

	// The cached token now backs the oauth client.
	cfg := config.Default()
	cfg.Auth = a
	_, err = NewHTTPClient(context.Background(), cfg)
	require.NoError(t, err)

	require.NoError(t, RemoveToken())
	_, err = os.Stat(filepath.Join(home, ".config", "engagements", TokenFile))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, RemoveToken())
}

func TestSavingTokenSourcePersistsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokenFile)
	first := &oauth2.Token{AccessToken: "one"}
	src := &savingTokenSource{
		src:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "two"}),
		path: path,
		last: first,
	}

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "two", tok.AccessToken)

	saved, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", saved.AccessToken)
}
