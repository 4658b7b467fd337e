// Package rss fetches new entries from RSS and Atom feeds.
package rss

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/mmcdole/gofeed"

	"forum_relay/internal/domain"
	"forum_relay/internal/ratelimit"
	"forum_relay/internal/source"
)

const (
	DefaultUserAgent         = "forum_relay/1.0"
	DefaultRequestsPerMinute = 30
	unknownAuthor            = "unknown"
)

type Config struct {
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
	AcquireTimeout    time.Duration `yaml:"acquire_timeout"`
}

// Client implements source.Fetcher for feeds. Entry bodies are converted from
// HTML to markdown so they render in chat.
type Client struct {
	parser         *gofeed.Parser
	converter      *md.Converter
	limiter        *ratelimit.Limiter
	acquireTimeout time.Duration
	now            func() time.Time
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

	logger = logger.With("source", domain.SourceKindRSS)

	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent
	parser.Client = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		parser:         parser,
		converter:      md.NewConverter("", true, nil),
		limiter:        ratelimit.New(cfg.RequestsPerMinute, logger),
		acquireTimeout: cfg.AcquireTimeout,
		now:            time.Now,
		logger:         logger,
	}
}

// FetchNew parses the feed at src.URL and returns up to limit entries created
// after since, in feed order.
func (c *Client) FetchNew(ctx context.Context, src domain.Source, limit int, since *time.Time) ([]domain.FetchedItem, error) {
	if !c.limiter.Acquire(ctx, c.acquireTimeout) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("rate limit: no token within timeout")
	}

	feed, err := c.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusNotFound || httpErr.StatusCode == http.StatusGone {
				return nil, fmt.Errorf("%w: feed %s (status %d)", domain.ErrSourceNotFound, src.URL, httpErr.StatusCode)
			}
			return nil, fmt.Errorf("unexpected status: %d", httpErr.StatusCode)
		}
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := feed.Items
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := source.After(c.transform(src, entries), since)

	c.logger.Debug("fetched feed",
		"feed", src.Name,
		"listed", len(feed.Items),
		"new", len(items),
	)

	return items, nil
}

func (c *Client) transform(src domain.Source, entries []*gofeed.Item) []domain.FetchedItem {
	fetchedAt := c.now().UTC()
	items := make([]domain.FetchedItem, 0, len(entries))

	for _, e := range entries {
		key := e.GUID
		if key == "" {
			key = e.Link
		}
		if key == "" {
			key = e.Title
		}
		if key == "" {
			continue
		}

		item := domain.FetchedItem{
			ID:        itemID(src.URL, key),
			Title:     strings.TrimSpace(e.Title),
			Author:    author(e),
			Permalink: e.Link,
			CreatedAt: fetchedAt,
		}
		switch {
		case e.PublishedParsed != nil:
			item.CreatedAt = e.PublishedParsed.UTC()
		case e.UpdatedParsed != nil:
			item.CreatedAt = e.UpdatedParsed.UTC()
		}

		if body := c.body(e); body != "" {
			item.Body = &body
		}

		items = append(items, item)
	}

	return items
}

func (c *Client) body(e *gofeed.Item) string {
	html := e.Content
	if html == "" {
		html = e.Description
	}
	if strings.TrimSpace(html) == "" {
		return ""
	}

	markdown, err := c.converter.ConvertString(html)
	if err != nil {
		c.logger.Warn("failed to convert entry body", "link", e.Link, "error", err)
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(markdown)
}

func author(e *gofeed.Item) string {
	for _, p := range e.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	if e.Author != nil && e.Author.Name != "" {
		return e.Author.Name
	}
	return unknownAuthor
}

// itemID derives a stable id from the feed URL and the entry key so entries
// of different feeds never collide with each other or with Reddit ids.
func itemID(feedURL, key string) string {
	sum := sha1.Sum([]byte(feedURL + "\x00" + key))
	return "rss-" + hex.EncodeToString(sum[:])[:16]
}
