package translator

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"forum_relay/internal/domain"
)

const (
	BackendDeepL     = "deepl"
	BackendGemini    = "gemini"
	BackendAnthropic = "anthropic"
)

type Config struct {
	DeepL     DeepLConfig     `yaml:"deepl"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

type DeepLConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type GeminiConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type AnthropicConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Available lists the backend names New accepts.
func Available() []string {
	return []string{BackendDeepL, BackendGemini, BackendAnthropic}
}

// Valid reports whether name selects a known backend.
func Valid(name string) bool {
	name = normalizeName(name)
	for _, n := range Available() {
		if n == name {
			return true
		}
	}
	return false
}

// New builds the backend selected by name. Unknown names and missing
// credentials fail with domain.ErrConfig; there is no fallback backend.
func New(name string, cfg Config, logger *slog.Logger) (Translator, error) {
	switch normalizeName(name) {
	case BackendDeepL:
		return NewDeepL(cfg.DeepL, logger)
	case BackendGemini:
		return NewGemini(cfg.Gemini, logger)
	case BackendAnthropic:
		return NewAnthropic(cfg.Anthropic, logger)
	default:
		return nil, fmt.Errorf("%w: unsupported translator service %q (supported: %s)",
			domain.ErrConfig, name, strings.Join(Available(), ", "))
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
