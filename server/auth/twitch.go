package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const (
	twitchAuthURL  = "https://id.twitch.tv/oauth2/authorize"
	twitchTokenURL = "https://id.twitch.tv/oauth2/token"
	twitchHelixURL = "https://api.twitch.tv/helix"
)

const defaultUpstreamTimeout = 10 * time.Second

// TwitchConfig is the identity provider section of the server config file.
// The URL overrides exist for unit tests; leave them empty in production.
type TwitchConfig struct {
	ClientID       string `json:"clientId" envconfig:"TWITCH_CLIENT_ID"`
	ClientSecret   string `json:"clientSecret" envconfig:"TWITCH_CLIENT_SECRET"`
	CallbackURL    string `json:"callbackUrl" envconfig:"TWITCH_CALLBACK_URL"`
	AuthURL        string `json:"authUrl"`
	TokenURL       string `json:"tokenUrl"`
	HelixURL       string `json:"helixUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// Profile is the authenticated user as reported by the identity provider.
type Profile struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"profile_image_url"`
}

// TwitchClient performs the OAuth2 authorization-code handshake against
// Twitch, and fetches the authenticated profile. We request no scopes beyond
// the minimum needed to read the profile.
type TwitchClient struct {
	oauth    oauth2.Config
	helixURL string
	timeout  time.Duration
	client   *http.Client
}

func NewTwitchClient(cfg TwitchConfig) *TwitchClient {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = twitchAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = twitchTokenURL
	}
	helixURL := cfg.HelixURL
	if helixURL == "" {
		helixURL = twitchHelixURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = defaultUpstreamTimeout
	}
	return &TwitchClient{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		helixURL: helixURL,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// BeginAuthorization returns the provider authorization URL to redirect the
// browser to. state is the encoded return-target token; when empty, the
// state parameter is omitted entirely.
func (c *TwitchClient) BeginAuthorization(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// CompleteAuthorization exchanges the callback code for tokens, then fetches
// the profile of the authenticated user with a single bearer-token call.
func (c *TwitchClient) CompleteAuthorization(ctx context.Context, code string) (*Profile, *oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	// Make the exchange use our client, so its timeout applies there too
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		if isTimeout(err) {
			return nil, nil, ErrUpstreamTimeout
		}
		return nil, nil, fmt.Errorf("token exchange failed: %w", err)
	}
	profile, err := c.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return profile, token, nil
}

func (c *TwitchClient) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.helixURL+"/users", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", c.oauth.ClientID)
	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode != http.StatusOK {
		return nil, &ErrUpstreamProfileFetch{StatusCode: resp.StatusCode, Body: string(body)}
	}
	users := struct {
		Data []Profile `json:"data"`
	}{}
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("malformed profile response: %w", err)
	}
	if len(users.Data) == 0 {
		// A 200 with no user is still a failed profile fetch
		return nil, &ErrUpstreamProfileFetch{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return &users.Data[0], nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
