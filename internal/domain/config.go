package domain

import "time"

const (
	DefaultLanguage            = "en"
	DefaultTranslator          = "deepl"
	DefaultPollIntervalMinutes = 5
)

// UserConfig is the singleton row holding user preferences.
type UserConfig struct {
	ID                  int64     `db:"id"`
	Language            string    `db:"language"`
	TranslatorService   string    `db:"translator_service"`
	PollIntervalMinutes int       `db:"poll_interval_minutes"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func (c UserConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMinutes) * time.Minute
}

func DefaultUserConfig() UserConfig {
	return UserConfig{
		Language:            DefaultLanguage,
		TranslatorService:   DefaultTranslator,
		PollIntervalMinutes: DefaultPollIntervalMinutes,
	}
}

type TargetType string

const (
	TargetDiscord TargetType = "discord"
	TargetSlack   TargetType = "slack"
)

func (t TargetType) Valid() bool {
	return t == TargetDiscord || t == TargetSlack
}

// WebhookTarget is one configured delivery channel. URL carries a secret.
type WebhookTarget struct {
	ID        int64      `db:"id"`
	Type      TargetType `db:"type"`
	URL       string     `db:"webhook_url"`
	Enabled   bool       `db:"enabled"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// RedactedURL returns the URL with the token part hidden.
func (w WebhookTarget) RedactedURL() string {
	if len(w.URL) > 30 {
		return w.URL[:30] + "***"
	}
	return "***"
}
