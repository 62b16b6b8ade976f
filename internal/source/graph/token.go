package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akaul/reportdash/internal/source"
)

const (
	// defaultLoginBaseURL is the public Microsoft identity endpoint.
	defaultLoginBaseURL = "https://login.microsoftonline.com"

	// defaultScope is the mail API's client-credentials scope.
	defaultScope = "https://graph.microsoft.com/.default"

	// expirySlack is how long before the reported expiry a cached
	// credential stops being reused.
	expirySlack = 30 * time.Second
)

// Credential is a bearer token with its expiry. Held in process memory
// only, never persisted.
type Credential struct {
	Token  string
	Expiry time.Time
}

// TokenConfig holds the client-credentials identity for the mail API.
// All three secrets are required.
type TokenConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// LoginBaseURL overrides the identity endpoint (tests). Empty
	// means the public endpoint.
	LoginBaseURL string
}

// TokenProvider exchanges client credentials for a bearer token and
// caches the result for the remainder of the run. It does not retry;
// a rejected or unreachable identity endpoint surfaces as an AuthError.
type TokenProvider struct {
	cfg        TokenConfig
	httpClient *http.Client
	cached     Credential
	now        func() time.Time
}

// NewTokenProvider creates a token provider for the given identity.
func NewTokenProvider(cfg TokenConfig) *TokenProvider {
	if cfg.LoginBaseURL == "" {
		cfg.LoginBaseURL = defaultLoginBaseURL
	}
	return &TokenProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// Token returns a bearer token for the mail API, reusing an unexpired
// cached credential when one exists. Missing secrets fail before any
// network call is made.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if err := p.checkSecrets(); err != nil {
		return "", err
	}

	if p.cached.Token != "" && p.now().Before(p.cached.Expiry.Add(-expirySlack)) {
		return p.cached.Token, nil
	}

	cred, err := p.acquire(ctx)
	if err != nil {
		return "", err
	}

	p.cached = cred
	return cred.Token, nil
}

// checkSecrets verifies all three secrets are present and non-empty.
func (p *TokenProvider) checkSecrets() error {
	missing := []string{}
	if p.cfg.TenantID == "" {
		missing = append(missing, "tenant id")
	}
	if p.cfg.ClientID == "" {
		missing = append(missing, "client id")
	}
	if p.cfg.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if len(missing) > 0 {
		return &source.AuthError{
			Message: "missing credentials: " + strings.Join(missing, ", "),
		}
	}
	return nil
}

// acquire performs the client-credentials token exchange.
func (p *TokenProvider) acquire(ctx context.Context) (Credential, error) {
	tokenURL := fmt.Sprintf(
		"%s/%s/oauth2/v2.0/token",
		strings.TrimRight(p.cfg.LoginBaseURL, "/"), p.cfg.TenantID,
	)

	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("scope", defaultScope)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return Credential{}, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Credential{}, &source.AuthError{
			Message: fmt.Sprintf("reaching identity endpoint: %v", err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Credential{}, &source.AuthError{
			Message: fmt.Sprintf(
				"token exchange rejected (%d): %s",
				resp.StatusCode, string(respBody),
			),
		}
	}

	var parsed tokenResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Credential{}, fmt.Errorf("unmarshaling token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return Credential{}, &source.AuthError{
			Message: "token response carried no access_token",
		}
	}

	return Credential{
		Token:  parsed.AccessToken,
		Expiry: p.now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
	}, nil
}
