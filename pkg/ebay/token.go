package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultIdentityURL = "https://api.ebay.com/identity/v1/oauth2/token"
	tokenScope         = "https://api.ebay.com/oauth/api_scope https://api.ebay.com/oauth/api_scope/sell.inventory"

	// Tokens are refreshed this long before their reported expiry so an
	// in-flight call never carries a token that dies mid-request.
	tokenExpiryMargin = 5 * time.Minute
)

// Credentials holds the OAuth application keys and the long-lived user
// refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// tokenSource mints and caches OAuth access tokens from a refresh token.
type tokenSource struct {
	creds       Credentials
	identityURL string
	http        *http.Client
	now         func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(creds Credentials, identityURL string, hc *http.Client) *tokenSource {
	return &tokenSource{
		creds:       creds,
		identityURL: identityURL,
		http:        hc,
		now:         time.Now,
	}
}

// Token returns a valid access token, refreshing through the identity
// endpoint when the cached one is absent or near expiry.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiry) {
		return ts.token, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {ts.creds.RefreshToken},
		"scope":         {tokenScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.identityURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "ebay: create token request")
	}
	basic := base64.StdEncoding.EncodeToString([]byte(ts.creds.ClientID + ":" + ts.creds.ClientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := ts.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ebay: token request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "ebay: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("ebay: token status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", eris.Wrap(err, "ebay: decode token response")
	}
	if payload.AccessToken == "" {
		return "", eris.New("ebay: token response missing access_token")
	}
	if payload.ExpiresIn == 0 {
		payload.ExpiresIn = 7200
	}

	ts.token = payload.AccessToken
	ts.expiry = ts.now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenExpiryMargin)
	return ts.token, nil
}
