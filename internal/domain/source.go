package domain

import "time"

type SourceKind string

const (
	SourceKindReddit SourceKind = "reddit"
	SourceKindRSS    SourceKind = "rss"
)

// Source is a monitored feed such as a subreddit or an RSS channel.
type Source struct {
	ID            int64      `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Kind          SourceKind `db:"kind" json:"kind"`
	URL           string     `db:"url" json:"url"`
	Enabled       bool       `db:"enabled" json:"enabled"`
	LastCheckedAt *time.Time `db:"last_checked_at" json:"last_checked_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// FetchedItem is an item as returned by a source client, before it is stored.
type FetchedItem struct {
	ID        string
	Title     string
	Body      *string
	Author    string
	Permalink string
	CreatedAt time.Time
}
