package translator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/aktagon/llmkit/google"
	googletypes "github.com/aktagon/llmkit/google/types"

	"forum_relay/internal/domain"
)

const (
	geminiDefaultModel = "gemini-2.5-flash-lite"
	geminiSystemPrompt = anthropicSystemPrompt
)

// generateFunc sends one system+user prompt to Gemini.
type generateFunc func(systemPrompt, userPrompt string) (*googletypes.GoogleResponse, error)

// Gemini translates by prompting a Gemini model through llmkit.
type Gemini struct {
	apiKey   string
	settings googletypes.RequestSettings
	send     generateFunc
	logger   *slog.Logger

	requests     atomic.Int64
	promptTokens atomic.Int64
	outputTokens atomic.Int64
}

func NewGemini(cfg GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: Gemini API key not found, set GEMINI_API_KEY", domain.ErrConfig)
	}

	settings := googletypes.RequestSettings{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if settings.Model == "" {
		settings.Model = geminiDefaultModel
	}

	logger = logger.With("translator", BackendGemini)
	logger.Info("translator initialized", "model", settings.Model)

	g := &Gemini{
		apiKey:   cfg.APIKey,
		settings: settings,
		logger:   logger,
	}
	g.send = g.prompt
	return g, nil
}

func (g *Gemini) prompt(systemPrompt, userPrompt string) (*googletypes.GoogleResponse, error) {
	return google.PromptWithSettings(systemPrompt, userPrompt, "", g.apiKey, g.settings)
}

func (g *Gemini) Name() string {
	return BackendGemini
}

func (g *Gemini) Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error) {
	if isBlank(text) {
		return Result{Text: "", SourceLang: UnknownLanguage}, nil
	}
	text = truncate(text, g.logger)

	detected := strings.ToLower(sourceLang)
	if detected == "" {
		answer, err := g.generate(ctx, detectPrompt(text))
		if err != nil {
			g.logger.Error("language detection failed", "error", err)
			return Result{}, fmt.Errorf("gemini detect: %w", err)
		}
		detected = normalizeDetected(answer)
		g.logger.Debug("detected language", "lang", detected)
	}

	translated, err := g.generate(ctx, translatePrompt(text, targetLang))
	if err != nil {
		g.logger.Error("translation failed", "error", err)
		return Result{}, fmt.Errorf("gemini translate: %w", err)
	}

	g.logger.Debug("translated",
		"chars", len([]rune(text)),
		"source_lang", detected,
		"target_lang", targetLang,
		"model", g.settings.Model,
	)

	return Result{Text: strings.TrimSpace(translated), SourceLang: detected}, nil
}

// generate runs one prompt and joins the parts of the first candidate.
// llmkit calls are not cancellable, so ctx is only checked up front.
func (g *Gemini) generate(ctx context.Context, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := g.send(geminiSystemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	g.requests.Add(1)
	g.promptTokens.Add(int64(resp.UsageMetadata.PromptTokenCount))
	g.outputTokens.Add(int64(resp.UsageMetadata.CandidatesTokenCount))

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (g *Gemini) TranslateItem(ctx context.Context, title string, body *string, targetLang string) (*domain.ItemTranslation, error) {
	return translateItem(ctx, g, title, body, targetLang, g.logger)
}

func (g *Gemini) SupportsLanguage(_ context.Context, code string) bool {
	return generativeSupports(code)
}

// Usage reports token counts observed by this process; the API itself does
// not expose account usage.
func (g *Gemini) Usage(context.Context) map[string]any {
	return map[string]any{
		"model":         g.settings.Model,
		"requests":      g.requests.Load(),
		"prompt_tokens": g.promptTokens.Load(),
		"output_tokens": g.outputTokens.Load(),
	}
}
