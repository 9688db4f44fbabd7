package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrisonrobin/engagements/pkg/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	// TokenFile is the cached OAuth token, stored next to config.json.
	TokenFile = "token.json"

	// LocalhostAuthPort receives the OAuth redirect during Login. It must
	// match the redirect URI registered with the identity provider.
	LocalhostAuthPort = "6789"

	loginTimeout = 5 * time.Minute
)

// TokenPath returns the location of the cached OAuth token.
func TokenPath() (string, error) {
	dir, err := config.GetXdgHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TokenFile), nil
}

// OAuthConfig builds the authorization-code configuration for a.
func OAuthConfig(a config.Auth, redirectURL string) (*oauth2.Config, error) {
	if a.ClientID == "" || a.AuthURL == "" || a.TokenURL == "" {
		return nil, errors.New("oauth auth needs client_id, auth_url and token_url")
	}
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  a.AuthURL,
			TokenURL: a.TokenURL,
		},
		RedirectURL: redirectURL,
		Scopes:      a.Scopes,
	}, nil
}

// oauthClient uses the cached token, refreshing it as needed and writing the
// refreshed token back to disk.
func oauthClient(ctx context.Context, a config.Auth) (*http.Client, error) {
	conf, err := OAuthConfig(a, defaultRedirectURL())
	if err != nil {
		return nil, err
	}
	path, err := TokenPath()
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "no cached token, run with -login first")
	}

	src := &savingTokenSource{
		src:  conf.TokenSource(ctx, tok),
		path: path,
		last: tok,
	}
	return oauth2.NewClient(ctx, src), nil
}

// savingTokenSource persists the token whenever the wrapped source hands out
// a different one.
type savingTokenSource struct {
	src  oauth2.TokenSource
	path string

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		logrus.WithField("path", s.path).Info("token refreshed, saving")
		if err := saveToken(s.path, tok); err != nil {
			logrus.WithError(err).Warn("could not save refreshed token")
		}
		s.last = tok
	}
	return tok, nil
}

// LoginOptions tunes the interactive authorization flow.
type LoginOptions struct {
	// Listen is the address of the redirect listener, ":6789" by default.
	Listen string
	// Out receives the authorization URL the user has to open.
	Out     io.Writer
	Timeout time.Duration
}

// Login runs the authorization-code flow with PKCE through a local redirect
// listener and caches the resulting token.
func Login(ctx context.Context, a config.Auth, opts LoginOptions) (*oauth2.Token, error) {
	if opts.Listen == "" {
		opts.Listen = ":" + LocalhostAuthPort
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = loginTimeout
	}

	listener, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start listener on %s", opts.Listen)
	}
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	conf, err := OAuthConfig(a, fmt.Sprintf("http://localhost:%d/oauth2callback", port))
	if err != nil {
		return nil, err
	}

	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("state") != state {
				http.Error(w, "State mismatch", http.StatusBadRequest)
				return
			}
			code := q.Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				trySend(errCh, errors.New("authorization code not found in redirect URL"))
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			trySend(codeCh, code)
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			trySend(errCh, errors.Wrap(err, "HTTP server error"))
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(opts.Out, "Open the following URL in your browser to authorize engagements:\n%s\n", authURL)
	logrus.WithField("redirect", conf.RedirectURL).Info("waiting for authorization code")

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := conf.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, errors.Wrap(err, "unable to exchange authorization code")
		}
		path, err := TokenPath()
		if err != nil {
			return nil, err
		}
		if err := saveToken(path, tok); err != nil {
			return nil, err
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(opts.Timeout):
		return nil, errors.New("authorization timed out, please try again")
	}
}

// RemoveToken deletes the cached token, if any.
func RemoveToken() error {
	path, err := TokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "could not delete token file '%s'", path)
	}
	return nil
}

// trySend drops v when ch already holds a value; only the first redirect
// counts.
func trySend[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func defaultRedirectURL() string {
	return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, errors.Wrapf(err, "failed to decode token from file %s", path)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "could not create token directory")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "unable to cache OAuth token to %s", path)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
