package domain

import "time"

type ItemStatus string

const (
	ItemStatusPending ItemStatus = "pending"
	ItemStatusSuccess ItemStatus = "success"
	ItemStatusFailed  ItemStatus = "failed"
)

type Item struct {
	ID           string     `db:"id" json:"id"`
	SourceID     int64      `db:"source_id" json:"source_id"`
	Title        string     `db:"title" json:"title"`
	Body         *string    `db:"body" json:"body"`
	Author       string     `db:"author" json:"author"`
	Permalink    string     `db:"permalink" json:"permalink"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	Status       ItemStatus `db:"status" json:"status"`
	ProcessedAt  *time.Time `db:"processed_at" json:"processed_at"`
	RetryCount   int        `db:"retry_count" json:"retry_count"`
	ErrorMessage *string    `db:"error_message" json:"error_message"`
}

func NewItem(sourceID int64, f FetchedItem) *Item {
	return &Item{
		ID:        f.ID,
		SourceID:  sourceID,
		Title:     f.Title,
		Body:      f.Body,
		Author:    f.Author,
		Permalink: f.Permalink,
		CreatedAt: f.CreatedAt,
		Status:    ItemStatusPending,
	}
}

// Translation is the cached translation of one item into one target language.
type Translation struct {
	ID              int64     `db:"id" json:"id"`
	ItemID          string    `db:"item_id" json:"item_id"`
	SourceLang      string    `db:"source_lang" json:"source_lang"`
	TargetLang      string    `db:"target_lang" json:"target_lang"`
	TranslatedTitle string    `db:"translated_title" json:"translated_title"`
	TranslatedBody  *string   `db:"translated_body" json:"translated_body"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ItemTranslation is what a translator returns for a title/body pair.
type ItemTranslation struct {
	Title      string
	Body       *string
	SourceLang string
}
