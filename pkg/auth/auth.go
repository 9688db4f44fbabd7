package auth

import (
	"context"
	"net/http"

	"github.com/harrisonrobin/engagements/pkg/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// NewHTTPClient returns an *http.Client that authenticates requests to the
// projects endpoint according to cfg.Auth.Mode.
func NewHTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	a := cfg.Auth
	log := logrus.WithField("auth_mode", a.Mode)

	var (
		client *http.Client
		err    error
	)
	switch a.Mode {
	case config.AuthNone, "":
		client = &http.Client{}
	case config.AuthToken:
		client, err = staticTokenClient(ctx, a)
	case config.AuthOAuth:
		client, err = oauthClient(ctx, a)
	case config.AuthClientCredentials:
		client, err = clientCredentialsClient(ctx, a)
	case config.AuthGoogle:
		client, err = googleIDTokenClient(ctx, a)
	default:
		err = errors.Errorf("unknown auth mode '%s'", a.Mode)
	}
	if err != nil {
		return nil, err
	}

	client.Timeout = cfg.Timeout
	log.Debug("http client ready")
	return client, nil
}

// staticTokenClient sends a fixed bearer token, read from the config or,
// failing that, from the cached token file.
func staticTokenClient(ctx context.Context, a config.Auth) (*http.Client, error) {
	tok := &oauth2.Token{AccessToken: a.Token, TokenType: "Bearer"}
	if a.Token == "" {
		path, err := TokenPath()
		if err != nil {
			return nil, err
		}
		tok, err = tokenFromFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "no token configured")
		}
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)), nil
}

func clientCredentialsClient(ctx context.Context, a config.Auth) (*http.Client, error) {
	if a.ClientID == "" || a.TokenURL == "" {
		return nil, errors.New("client_credentials auth needs client_id and token_url")
	}
	cc := &clientcredentials.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		TokenURL:     a.TokenURL,
		Scopes:       a.Scopes,
	}
	return cc.Client(ctx), nil
}

// googleIDTokenClient signs requests with a Google ID token for services
// behind Cloud Run or IAP.
func googleIDTokenClient(ctx context.Context, a config.Auth) (*http.Client, error) {
	if a.Audience == "" {
		return nil, errors.New("google auth needs an audience")
	}
	var opts []idtoken.ClientOption
	if a.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(a.CredentialsFile))
	}
	client, err := idtoken.NewClient(ctx, a.Audience, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create Google ID token client")
	}
	return client, nil
}
