package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Proton-105/fish-shop-bot/internal/errors"
	"github.com/Proton-105/fish-shop-bot/pkg/metrics"
)

const (
	GrantClientCredentials = "client_credentials"
	GrantImplicit          = "implicit"
)

// AccessToken is a bearer credential together with its absolute expiry.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenProvider obtains a fresh access token from the auth endpoint.
type TokenProvider interface {
	FetchToken(ctx context.Context) (AccessToken, error)
}

// TokenState describes the lifecycle of the cached token.
type TokenState int

const (
	TokenUninitialized TokenState = iota
	TokenValid
	TokenExpired
)

func (s TokenState) String() string {
	switch s {
	case TokenUninitialized:
		return "uninitialized"
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// TokenManager caches a bearer token and refreshes it when it is missing or
// within margin of its expiry. Concurrent callers share a single refresh.
type TokenManager struct {
	mu       sync.Mutex
	provider TokenProvider
	margin   time.Duration
	token    AccessToken
	fetched  bool
	now      func() time.Time
}

func NewTokenManager(provider TokenProvider, margin time.Duration) *TokenManager {
	if margin < 0 {
		margin = 0
	}

	return &TokenManager{
		provider: provider,
		margin:   margin,
		now:      time.Now,
	}
}

// Token returns a usable bearer token, refreshing it first when needed.
// Refresh failures are returned as is and leave the cached token untouched.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stateLocked() == TokenValid {
		return m.token.Value, nil
	}

	token, err := m.provider.FetchToken(ctx)
	if err != nil {
		metrics.RecordTokenRefresh("error")
		return "", err
	}

	metrics.RecordTokenRefresh("success")
	m.token = token
	m.fetched = true

	return token.Value, nil
}

// State reports the current token state without refreshing.
func (m *TokenManager) State() TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stateLocked()
}

func (m *TokenManager) stateLocked() TokenState {
	if !m.fetched {
		return TokenUninitialized
	}
	if !m.now().Before(m.token.ExpiresAt.Add(-m.margin)) {
		return TokenExpired
	}
	return TokenValid
}

// OAuthProvider requests tokens from the /oauth/access_token endpoint.
type OAuthProvider struct {
	baseURL      string
	clientID     string
	clientSecret string
	grantType    string
	httpClient   *http.Client
	now          func() time.Time
}

func NewOAuthProvider(baseURL, clientID, clientSecret string, httpClient *http.Client) *OAuthProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	grant := GrantImplicit
	if clientSecret != "" {
		grant = GrantClientCredentials
	}

	return &OAuthProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		grantType:    grant,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Expires     int64  `json:"expires"`
}

// FetchToken implements TokenProvider.
func (p *OAuthProvider) FetchToken(ctx context.Context) (AccessToken, error) {
	form := url.Values{}
	form.Set("client_id", p.clientID)
	if p.clientSecret != "" {
		form.Set("client_secret", p.clientSecret)
	}
	form.Set("grant_type", p.grantType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return AccessToken{}, fmt.Errorf("commerce: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return AccessToken{}, apperrors.NewExternalAPIError("commerce auth", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AccessToken{}, apperrors.NewExternalAPIError("commerce auth", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return AccessToken{}, apperrors.NewExternalAPIError("commerce auth", &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		})
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return AccessToken{}, apperrors.NewExternalAPIError("commerce auth", fmt.Errorf("decode token: %w", err))
	}
	if payload.AccessToken == "" {
		return AccessToken{}, apperrors.NewExternalAPIError("commerce auth", fmt.Errorf("empty access token"))
	}

	now := p.now()
	token := AccessToken{Value: payload.AccessToken}
	switch {
	case payload.ExpiresIn > 0:
		token.ExpiresAt = now.Add(time.Duration(payload.ExpiresIn) * time.Second)
	case payload.Expires > 0:
		token.ExpiresAt = time.Unix(payload.Expires, 0)
	default:
		token.ExpiresAt = now
	}

	return token, nil
}
