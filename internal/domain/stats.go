package domain

import "time"

// ItemOutcome is the result of processing one fetched item.
type ItemOutcome struct {
	ItemID    string
	Status    ItemStatus
	Delivered bool
	Attempts  int
	Err       error
}

func (o ItemOutcome) Succeeded() bool {
	return o.Status == ItemStatusSuccess
}

// SourceStats holds statistics about one source cycle.
type SourceStats struct {
	Source    string        `json:"source"`
	Fetched   int           `json:"fetched"`
	Skipped   int           `json:"skipped"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Outcomes  []ItemOutcome `json:"-"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
}

// CycleStats holds statistics about one pass over all enabled sources.
type CycleStats struct {
	TotalChecked int           `json:"total_checked"`
	TotalPosts   int           `json:"total_posts"`
	Errors       int           `json:"errors"`
	Sources      []SourceStats `json:"sources,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Notification is the delivery payload for one translated item.
type Notification struct {
	SourceName string
	SourceKind SourceKind
	Title      string
	Body       string
	Permalink  string
	Author     string
}

// DeliveryResult reports how a webhook delivery went.
type DeliveryResult struct {
	Delivered  bool
	Attempts   int
	StatusCode int
	Err        error
}

// ItemEvent is published after an item reaches a final status.
type ItemEvent struct {
	Action      string       `json:"action"` // "success" or "failed"
	Source      string       `json:"source"`
	Item        Item         `json:"item"`
	Translation *Translation `json:"translation,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
