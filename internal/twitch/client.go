package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	logx "livenotify/pkg/logx"
)

const (
	defaultBaseURL = "https://api.twitch.tv/helix"
	defaultAuthURL = "https://id.twitch.tv/oauth2/token"

	// Helix app tokens live for weeks; refresh well before expiry.
	tokenExpiryBuffer = 10 * time.Minute
)

type Config struct {
	ClientID     string
	ClientSecret string

	// DebugAPI logs request details (with the secret redacted).
	DebugAPI bool

	// BaseURL/AuthURL override the Helix endpoints; tests only.
	BaseURL string
	AuthURL string
}

// StreamInfo is one live observation as reported by the Helix streams API.
type StreamInfo struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	UserLogin    string `json:"user_login"`
	UserName     string `json:"user_name"`
	GameName     string `json:"game_name"`
	Title        string `json:"title"`
	ViewerCount  int    `json:"viewer_count"`
	StartedAt    string `json:"started_at"`
	ThumbnailURL string `json:"thumbnail_url"`
	Language     string `json:"language"`
}

// URL returns the channel page link.
func (s *StreamInfo) URL() string {
	return "https://twitch.tv/" + s.UserLogin
}

// Thumbnail returns the preview image URL at the given size, with a
// cache-busting query parameter so chat clients fetch a fresh frame.
func (s *StreamInfo) Thumbnail(width, height int, now time.Time) string {
	u := strings.ReplaceAll(s.ThumbnailURL, "{width}", fmt.Sprint(width))
	u = strings.ReplaceAll(u, "{height}", fmt.Sprint(height))
	return fmt.Sprintf("%s?t=%d", u, now.Unix())
}

// Started parses the stream start time; zero time if absent/malformed.
func (s *StreamInfo) Started() time.Time {
	t, err := time.Parse(time.RFC3339, s.StartedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Client talks to the Helix API with app (client-credentials) auth.
// Token refresh is lazy: every call re-authenticates only when the cached
// token is missing or close to expiry.
type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("twitch client id and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  log,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"client_credentials"},
	}
	if c.cfg.DebugAPI {
		c.log.Info("auth request",
			logx.String("url", c.cfg.AuthURL),
			logx.String("client_id", c.cfg.ClientID),
			logx.String("client_secret", redactSecret(c.cfg.ClientSecret)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitch auth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("twitch auth: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("twitch auth: decode: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("twitch auth: empty access token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpiryBuffer)
	c.log.Info("authenticated with twitch api")
	return c.accessToken, nil
}

// invalidateToken drops the cached token so the next call re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

type streamsResponse struct {
	Data []StreamInfo `json:"data"`
}

// Stream returns the live stream for the channel, or nil if it is offline.
func (c *Client) Stream(ctx context.Context, channel string) (*StreamInfo, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := c.cfg.BaseURL + "/streams?user_login=" + url.QueryEscape(channel)
	if c.cfg.DebugAPI {
		c.log.Info("stream info request", logx.String("url", reqURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-ID", c.cfg.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitch streams: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
		return nil, fmt.Errorf("twitch streams: %s: %s", resp.Status, readErrorBody(resp.Body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitch streams: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var sr streamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("twitch streams: decode: %w", err)
	}
	// Empty data means the channel is offline.
	if len(sr.Data) == 0 {
		return nil, nil
	}
	return &sr.Data[0], nil
}

func redactSecret(secret string) string {
	if len(secret) > 8 {
		return secret[:4] + "..." + secret[len(secret)-4:]
	}
	return "****"
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 200))
	return strings.TrimSpace(string(b))
}
