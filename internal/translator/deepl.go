package translator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"forum_relay/internal/domain"
)

const (
	deeplFreeURL = "https://api-free.deepl.com"
	deeplProURL  = "https://api.deepl.com"
)

// DeepL translates through the DeepL REST API.
type DeepL struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger

	mu      sync.Mutex
	targets map[string]bool
}

func NewDeepL(cfg DeepLConfig, logger *slog.Logger) (*DeepL, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: DeepL API key not found, set DEEPL_API_KEY", domain.ErrConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		// Free-tier keys carry a ":fx" suffix and live on a separate host.
		baseURL = deeplProURL
		if strings.HasSuffix(cfg.APIKey, ":fx") {
			baseURL = deeplFreeURL
		}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger = logger.With("translator", BackendDeepL)
	logger.Info("translator initialized")

	return &DeepL{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}, nil
}

func (d *DeepL) Name() string {
	return BackendDeepL
}

type deeplTranslateRequest struct {
	Text       []string `json:"text"`
	TargetLang string   `json:"target_lang"`
	SourceLang string   `json:"source_lang,omitempty"`
}

type deeplTranslateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func (d *DeepL) Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error) {
	if isBlank(text) {
		return Result{Text: "", SourceLang: UnknownLanguage}, nil
	}
	text = truncate(text, d.logger)

	req := deeplTranslateRequest{
		Text:       []string{text},
		TargetLang: deeplTarget(targetLang),
		SourceLang: strings.ToUpper(sourceLang),
	}

	var resp deeplTranslateResponse
	if err := doJSON(ctx, d.httpClient, BackendDeepL, http.MethodPost, d.baseURL+"/v2/translate", d.headers(), req, &resp); err != nil {
		d.logger.Error("translation failed", "error", err)
		return Result{}, fmt.Errorf("deepl translate: %w", err)
	}
	if len(resp.Translations) == 0 {
		return Result{}, fmt.Errorf("deepl translate: empty response")
	}

	tr := resp.Translations[0]
	detected := strings.ToLower(tr.DetectedSourceLanguage)
	if detected == "" {
		detected = UnknownLanguage
	}

	d.logger.Debug("translated",
		"chars", len([]rune(text)),
		"source_lang", detected,
		"target_lang", targetLang,
	)

	return Result{Text: tr.Text, SourceLang: detected}, nil
}

func (d *DeepL) TranslateItem(ctx context.Context, title string, body *string, targetLang string) (*domain.ItemTranslation, error) {
	return translateItem(ctx, d, title, body, targetLang, d.logger)
}

// SupportsLanguage checks code against DeepL's target languages. The list is
// fetched once and cached.
func (d *DeepL) SupportsLanguage(ctx context.Context, code string) bool {
	targets, err := d.targetLanguages(ctx)
	if err != nil {
		d.logger.Error("failed to check language support", "error", err)
		return false
	}
	code = strings.ToLower(strings.TrimSpace(code))
	return targets[code]
}

func (d *DeepL) targetLanguages(ctx context.Context) (map[string]bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.targets != nil {
		return d.targets, nil
	}

	var langs []struct {
		Language string `json:"language"`
		Name     string `json:"name"`
	}
	url := d.baseURL + "/v2/languages?type=target"
	if err := doJSON(ctx, d.httpClient, BackendDeepL, http.MethodGet, url, d.headers(), nil, &langs); err != nil {
		return nil, err
	}

	targets := make(map[string]bool, len(langs)*2)
	for _, l := range langs {
		code := strings.ToLower(l.Language)
		targets[code] = true
		// "EN-US" also satisfies a plain "en".
		if base, _, ok := strings.Cut(code, "-"); ok {
			targets[base] = true
		}
	}
	d.targets = targets
	return targets, nil
}

func (d *DeepL) Usage(ctx context.Context) map[string]any {
	var usage struct {
		CharacterCount int64 `json:"character_count"`
		CharacterLimit int64 `json:"character_limit"`
	}
	if err := doJSON(ctx, d.httpClient, BackendDeepL, http.MethodGet, d.baseURL+"/v2/usage", d.headers(), nil, &usage); err != nil {
		d.logger.Error("failed to get usage stats", "error", err)
		return map[string]any{}
	}

	percent := 0.0
	if usage.CharacterLimit > 0 {
		percent = float64(usage.CharacterCount) / float64(usage.CharacterLimit) * 100
	}
	return map[string]any{
		"character_count": usage.CharacterCount,
		"character_limit": usage.CharacterLimit,
		"percentage_used": percent,
	}
}

func (d *DeepL) headers() map[string]string {
	return map[string]string{"Authorization": "DeepL-Auth-Key " + d.apiKey}
}

// deeplTarget maps a user language code to a DeepL target code. DeepL no
// longer accepts bare "EN" or "PT" as targets.
func deeplTarget(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "EN-US"
	case "pt":
		return "PT-PT"
	default:
		return strings.ToUpper(code)
	}
}
