package webhook

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"forum_relay/internal/domain"
)

const (
	discordColor        = 5814783
	discordTitleLimit   = 256
	discordPreviewLimit = 2000
	slackPreviewLimit   = 3000
)

type discordPayload struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	Color       int           `json:"color"`
	Footer      discordFooter `json:"footer"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// buildPayload renders n in the wire format of the given platform.
func buildPayload(t domain.TargetType, n domain.Notification) ([]byte, error) {
	switch t {
	case domain.TargetDiscord:
		return json.Marshal(discordMessage(n))
	case domain.TargetSlack:
		return json.Marshal(slackMessage(n))
	default:
		return nil, fmt.Errorf("%w: unsupported webhook type %q", domain.ErrValidation, t)
	}
}

func discordMessage(n domain.Notification) discordPayload {
	return discordPayload{
		Content: fmt.Sprintf("**New post in %s**", sourceLabel(n)),
		Embeds: []discordEmbed{{
			Title:       cut(n.Title, discordTitleLimit, ""),
			Description: cut(n.Body, discordPreviewLimit, "..."),
			URL:         n.Permalink,
			Color:       discordColor,
			Footer:      discordFooter{Text: "Posted by " + authorLabel(n)},
		}},
	}
}

func slackMessage(n domain.Notification) *slack.WebhookMessage {
	text := fmt.Sprintf("*<%s|%s>*\n%s\n\n_Posted by %s_",
		n.Permalink, n.Title, cut(n.Body, slackPreviewLimit, "..."), authorLabel(n))

	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil, nil,
	)

	return &slack.WebhookMessage{
		Text:   fmt.Sprintf("*New post in %s*", sourceLabel(n)),
		Blocks: &slack.Blocks{BlockSet: []slack.Block{section}},
	}
}

func sourceLabel(n domain.Notification) string {
	if n.SourceKind == domain.SourceKindReddit {
		return "r/" + n.SourceName
	}
	return n.SourceName
}

func authorLabel(n domain.Notification) string {
	if n.SourceKind == domain.SourceKindReddit {
		return "u/" + n.Author
	}
	return n.Author
}

// cut limits s to max runes, appending suffix when something was dropped.
func cut(s string, max int, suffix string) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + suffix
}
