package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

type GoogleProfile struct {
	ID    string
	Email string
	Name  string
}

// GoogleProvider runs the OAuth authorization code flow against Google.
type GoogleProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string, httpClient *http.Client) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		httpClient: httpClient,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the user's Google profile.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	if g.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	}
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(g.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("oauth2 service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return nil, fmt.Errorf("google profile missing id or email")
	}

	name := info.Name
	if name == "" {
		name = info.GivenName
	}
	return &GoogleProfile{ID: info.Id, Email: info.Email, Name: name}, nil
}
