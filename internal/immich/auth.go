package immich

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/oauth2"
)

var fs = afero.NewOsFs()

// SetFs replaces the filesystem token files are read from and written to.
func SetFs(f afero.Fs) {
	fs = f
}

// apiKeyTransport authenticates every request with an API key.
type apiKeyTransport struct {
	key  string
	next http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("x-api-key", t.key)
	return t.next.RoundTrip(req)
}

// OAuthOptions configures bearer token authentication instead of, or on top
// of, an API key.
type OAuthOptions struct {
	// TokenFile holds an oauth2 token as JSON or a bare access token.
	TokenFile string
	// TokenURL enables refreshing expired tokens.
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// HTTPOptions configures the HTTP client used for API calls.
type HTTPOptions struct {
	APIKey   string
	Timeout  time.Duration
	Insecure bool
	OAuth    *OAuthOptions
}

// NewHTTPClient builds an authenticating HTTP client.
func NewHTTPClient(ctx context.Context, opts HTTPOptions) (*http.Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	var rt http.RoundTripper = base
	if opts.APIKey != "" {
		rt = &apiKeyTransport{key: opts.APIKey, next: rt}
	}
	if opts.OAuth != nil && opts.OAuth.TokenFile != "" {
		src, err := tokenSource(ctx, opts.OAuth, &http.Client{Transport: base, Timeout: opts.Timeout})
		if err != nil {
			return nil, err
		}
		rt = &oauth2.Transport{Source: src, Base: rt}
	}
	return &http.Client{Transport: rt, Timeout: opts.Timeout}, nil
}

func tokenSource(ctx context.Context, opts *OAuthOptions, refreshClient *http.Client) (oauth2.TokenSource, error) {
	tok, err := loadToken(opts.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load token from %s: %w", opts.TokenFile, err)
	}
	if opts.TokenURL == "" || tok.RefreshToken == "" {
		return oauth2.StaticTokenSource(tok), nil
	}
	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: opts.TokenURL},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, refreshClient)
	src := newPersistingTokenSource(config.TokenSource(ctx, tok), opts.TokenFile, tok)
	return oauth2.ReuseTokenSource(tok, src), nil
}

// loadToken reads an oauth2 token written by saveToken, or a file that only
// contains an access token.
func loadToken(tokenPath string) (*oauth2.Token, error) {
	data, err := afero.ReadFile(fs, tokenPath)
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err == nil && tok.AccessToken != "" {
		return &tok, nil
	}

	access := strings.TrimSpace(string(data))
	if access == "" || strings.ContainsAny(access, "{}\n") {
		return nil, fmt.Errorf("no access token found")
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}

func saveToken(tokenPath string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return afero.WriteFile(fs, tokenPath, data, 0o600)
}

// persistingTokenSource wraps a TokenSource and saves refreshed tokens to disk
type persistingTokenSource struct {
	src       oauth2.TokenSource
	tokenPath string
	mu        sync.Mutex
	lastToken *oauth2.Token
}

func newPersistingTokenSource(src oauth2.TokenSource, tokenPath string, initial *oauth2.Token) *persistingTokenSource {
	return &persistingTokenSource{
		src:       src,
		tokenPath: tokenPath,
		lastToken: initial,
	}
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	if p.lastToken == nil || tok.AccessToken != p.lastToken.AccessToken {
		log.Info("Refreshed access token")
		if err := saveToken(p.tokenPath, tok); err != nil {
			log.WithError(err).Warnf("Could not save token to %s", p.tokenPath)
		}
		p.lastToken = tok
	}

	return tok, nil
}
