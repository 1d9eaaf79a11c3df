package auth

import (
	"context"
	"fmt"

	"github.com/airenas/go-app/pkg/goapp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultScope grants access to speech, vertex and storage APIs
const DefaultScope = "https://www.googleapis.com/auth/cloud-platform"

// Error indicates failure to obtain an access token
type Error struct {
	err error
}

// NewError wraps err as token acquisition failure
func NewError(err error) error {
	return &Error{err: err}
}

func (e *Error) Error() string {
	return "can't obtain access token: " + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Provider returns bearer tokens from an oauth2 token source
type Provider struct {
	ts oauth2.TokenSource
}

// NewGoogleProvider creates provider from application default credentials
func NewGoogleProvider(ctx context.Context, scopes ...string) (*Provider, error) {
	if len(scopes) == 0 {
		scopes = []string{DefaultScope}
	}
	ts, err := google.DefaultTokenSource(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("can't init google token source: %w", err)
	}
	goapp.Log.Info().Strs("scopes", scopes).Msg("cfg: google credentials")
	return &Provider{ts: ts}, nil
}

// NewStaticProvider returns provider with a fixed token, for local runs against emulators
func NewStaticProvider(token string) *Provider {
	return &Provider{ts: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})}
}

// Token returns access token or *Error
func (p *Provider) Token(ctx context.Context) (string, error) {
	t, err := p.ts.Token()
	if err != nil {
		return "", NewError(err)
	}
	if t == nil || t.AccessToken == "" {
		return "", NewError(fmt.Errorf("empty token"))
	}
	return t.AccessToken, nil
}
