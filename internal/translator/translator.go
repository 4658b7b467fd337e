// Package translator provides interchangeable translation backends behind a
// single interface. Backends are selected by name through New.
package translator

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"forum_relay/internal/domain"
)

const (
	// MaxTextLength bounds the number of runes sent to a backend per call.
	MaxTextLength = 10000

	UnknownLanguage = "unknown"
)

// Result is a single translated text with the detected source language.
type Result struct {
	Text       string
	SourceLang string
}

type Translator interface {
	Name() string
	Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error)
	TranslateItem(ctx context.Context, title string, body *string, targetLang string) (*domain.ItemTranslation, error)
	SupportsLanguage(ctx context.Context, code string) bool
	Usage(ctx context.Context) map[string]any
}

// textTranslator is the per-backend primitive that translateItem builds on.
type textTranslator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error)
}

// isBlank reports whether text has nothing worth sending to a backend.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// truncate cuts text to MaxTextLength runes and marks the cut with "...".
func truncate(text string, logger *slog.Logger) string {
	if utf8.RuneCountInString(text) <= MaxTextLength {
		return text
	}
	runes := []rune(text)
	logger.Warn("text truncated", "from", len(runes), "to", MaxTextLength)
	return string(runes[:MaxTextLength]) + "..."
}

// translateItem translates the title first to learn the source language, then
// the body (if any) reusing that language to skip a second detection.
func translateItem(
	ctx context.Context,
	t textTranslator,
	title string,
	body *string,
	targetLang string,
	logger *slog.Logger,
) (*domain.ItemTranslation, error) {
	titleResult, err := t.Translate(ctx, title, targetLang, "")
	if err != nil {
		return nil, err
	}

	out := &domain.ItemTranslation{
		Title:      titleResult.Text,
		SourceLang: titleResult.SourceLang,
	}

	if body != nil && !isBlank(*body) {
		sourceLang := titleResult.SourceLang
		if sourceLang == UnknownLanguage {
			sourceLang = ""
		}
		bodyResult, err := t.Translate(ctx, *body, targetLang, sourceLang)
		if err != nil {
			return nil, err
		}
		out.Body = &bodyResult.Text
		if out.SourceLang == UnknownLanguage {
			out.SourceLang = bodyResult.SourceLang
		}
	}

	bodyLen := 0
	if body != nil {
		bodyLen = utf8.RuneCountInString(*body)
	}
	logger.Info("item translated",
		"source_lang", out.SourceLang,
		"target_lang", targetLang,
		"title_chars", utf8.RuneCountInString(title),
		"body_chars", bodyLen,
	)

	return out, nil
}
