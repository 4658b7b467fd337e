package translator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"forum_relay/internal/domain"
)

const (
	anthropicDefaultModel     = "claude-3-5-haiku-latest"
	anthropicDefaultMaxTokens = 4096
	anthropicSystemPrompt     = "You are a translation engine. Follow the instructions exactly and output nothing else."
)

// completeFunc sends one system+user prompt and returns the first text block.
type completeFunc func(systemPrompt, userPrompt string) (string, error)

// Anthropic translates by prompting a Claude model through llmkit.
type Anthropic struct {
	apiKey   string
	settings types.RequestSettings
	send     completeFunc
	logger   *slog.Logger

	requests atomic.Int64
}

func NewAnthropic(cfg AnthropicConfig, logger *slog.Logger) (*Anthropic, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: Anthropic API key not found, set ANTHROPIC_API_KEY", domain.ErrConfig)
	}

	settings := types.RequestSettings{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if settings.Model == "" {
		settings.Model = anthropicDefaultModel
	}
	if settings.MaxTokens == 0 {
		settings.MaxTokens = anthropicDefaultMaxTokens
	}

	logger = logger.With("translator", BackendAnthropic)
	logger.Info("translator initialized", "model", settings.Model)

	a := &Anthropic{
		apiKey:   cfg.APIKey,
		settings: settings,
		logger:   logger,
	}
	a.send = a.prompt
	return a, nil
}

func (a *Anthropic) prompt(systemPrompt, userPrompt string) (string, error) {
	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, "", a.apiKey, a.settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}

func (a *Anthropic) Name() string {
	return BackendAnthropic
}

func (a *Anthropic) Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error) {
	if isBlank(text) {
		return Result{Text: "", SourceLang: UnknownLanguage}, nil
	}
	text = truncate(text, a.logger)

	detected := strings.ToLower(sourceLang)
	if detected == "" {
		answer, err := a.complete(ctx, detectPrompt(text))
		if err != nil {
			a.logger.Error("language detection failed", "error", err)
			return Result{}, fmt.Errorf("anthropic detect: %w", err)
		}
		detected = normalizeDetected(answer)
	}

	translated, err := a.complete(ctx, translatePrompt(text, targetLang))
	if err != nil {
		a.logger.Error("translation failed", "error", err)
		return Result{}, fmt.Errorf("anthropic translate: %w", err)
	}

	return Result{Text: strings.TrimSpace(translated), SourceLang: detected}, nil
}

// complete runs one prompt. llmkit calls are not cancellable, so ctx is only
// checked before the request goes out.
func (a *Anthropic) complete(ctx context.Context, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := a.send(anthropicSystemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	a.requests.Add(1)
	return text, nil
}

func (a *Anthropic) TranslateItem(ctx context.Context, title string, body *string, targetLang string) (*domain.ItemTranslation, error) {
	return translateItem(ctx, a, title, body, targetLang, a.logger)
}

func (a *Anthropic) SupportsLanguage(_ context.Context, code string) bool {
	return generativeSupports(code)
}

func (a *Anthropic) Usage(context.Context) map[string]any {
	return map[string]any{
		"model":    a.settings.Model,
		"requests": a.requests.Load(),
	}
}
