// Package reddit fetches new posts from subreddits through the Reddit API.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"forum_relay/internal/domain"
	"forum_relay/internal/ratelimit"
	"forum_relay/internal/source"
)

const (
	PublicURL = "https://www.reddit.com"
	OAuthURL  = "https://oauth.reddit.com"
	TokenURL  = "https://www.reddit.com/api/v1/access_token"

	DefaultUserAgent         = "forum_relay/1.0"
	DefaultRequestsPerMinute = 60
	deletedAuthor            = "[deleted]"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// ValidateName checks a subreddit name: 3-21 letters, digits or underscores.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid subreddit name %q", domain.ErrValidation, name)
	}
	return nil
}

// SubredditURL is the canonical URL stored for a subreddit source.
func SubredditURL(name string) string {
	return PublicURL + "/r/" + name
}

type Config struct {
	ClientID          string        `yaml:"client_id"`
	ClientSecret      string        `yaml:"client_secret"`
	UserAgent         string        `yaml:"user_agent"`
	BaseURL           string        `yaml:"base_url"`
	TokenURL          string        `yaml:"token_url"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
	AcquireTimeout    time.Duration `yaml:"acquire_timeout"`
}

// Client implements source.Fetcher for subreddits. With credentials it uses
// application-only OAuth against oauth.reddit.com, otherwise the public JSON
// endpoints.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	limiter        *ratelimit.Limiter
	acquireTimeout time.Duration
	logger         *slog.Logger
}

var _ source.Fetcher = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = time.Minute
	}

	logger = logger.With("source", domain.SourceKindReddit)

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &userAgentTransport{userAgent: cfg.UserAgent, base: http.DefaultTransport},
		// Reddit redirects unknown subreddits to search.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	httpClient := base
	baseURL := cfg.BaseURL
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = TokenURL
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		httpClient = cc.Client(tokenCtx)
		httpClient.Timeout = cfg.Timeout
		httpClient.CheckRedirect = base.CheckRedirect
		if baseURL == "" {
			baseURL = OAuthURL
		}
		logger.Info("reddit client initialized", "auth", "oauth", "rate_limit", cfg.RequestsPerMinute)
	} else {
		if baseURL == "" {
			baseURL = PublicURL
		}
		logger.Info("reddit client initialized", "auth", "none", "rate_limit", cfg.RequestsPerMinute)
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      cfg.UserAgent,
		limiter:        ratelimit.New(cfg.RequestsPerMinute, logger),
		acquireTimeout: cfg.AcquireTimeout,
		logger:         logger,
	}
}

// FetchNew returns up to limit of the newest posts of src.Name created after
// since, newest first.
func (c *Client) FetchNew(ctx context.Context, src domain.Source, limit int, since *time.Time) ([]domain.FetchedItem, error) {
	if !c.limiter.Acquire(ctx, c.acquireTimeout) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("rate limit: no token within timeout")
	}

	endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d&raw_json=1", c.baseURL, url.PathEscape(src.Name), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode >= 300 && resp.StatusCode < 400:
		return nil, fmt.Errorf("%w: r/%s (status %d)", domain.ErrSourceNotFound, src.Name, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := source.After(c.transform(l), since)

	c.logger.Debug("fetched posts",
		"subreddit", src.Name,
		"listed", len(l.Data.Children),
		"new", len(items),
	)

	return items, nil
}

func (c *Client) transform(l listing) []domain.FetchedItem {
	items := make([]domain.FetchedItem, 0, len(l.Data.Children))

	for _, child := range l.Data.Children {
		p := child.Data
		if p.ID == "" {
			continue
		}

		author := p.Author
		if author == "" {
			author = deletedAuthor
		}

		item := domain.FetchedItem{
			ID:        p.ID,
			Title:     p.Title,
			Author:    author,
			Permalink: PublicURL + p.Permalink,
			CreatedAt: unixSeconds(p.CreatedUTC),
		}
		if p.Selftext != "" {
			body := p.Selftext
			item.Body = &body
		}

		items = append(items, item)
	}

	return items
}

func unixSeconds(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}
