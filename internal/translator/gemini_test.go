package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	googletypes "github.com/aktagon/llmkit/google/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiReply(t *testing.T, text string) *googletypes.GoogleResponse {
	t.Helper()
	raw := fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":4}}`, text)

	var resp googletypes.GoogleResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return &resp
}

func newTestGemini(t *testing.T, send generateFunc) *Gemini {
	t.Helper()
	g, err := NewGemini(GeminiConfig{APIKey: "g-key"}, discardLogger())
	require.NoError(t, err)
	g.send = send
	return g
}

func TestGemini_Defaults(t *testing.T) {
	g, err := NewGemini(GeminiConfig{APIKey: "g-key", Temperature: 0.2}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, geminiDefaultModel, g.settings.Model)
	assert.Equal(t, 0.2, g.settings.Temperature)
}

func TestGemini_MissingKey(t *testing.T) {
	_, err := NewGemini(GeminiConfig{APIKey: "  "}, discardLogger())
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestGemini_Translate_DetectsThenTranslates(t *testing.T) {
	var prompts []string
	g := newTestGemini(t, func(system, user string) (*googletypes.GoogleResponse, error) {
		assert.Equal(t, geminiSystemPrompt, system)
		prompts = append(prompts, user)
		if strings.HasPrefix(user, "Identify the language") {
			return geminiReply(t, "EN\n"), nil
		}
		return geminiReply(t, "  안녕하세요  "), nil
	})

	res, err := g.Translate(context.Background(), "Hello", "ko", "")
	require.NoError(t, err)

	assert.Equal(t, "안녕하세요", res.Text)
	assert.Equal(t, "en", res.SourceLang)
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "Translate the following text to Korean.")

	usage := g.Usage(context.Background())
	assert.Equal(t, int64(2), usage["requests"])
	assert.Equal(t, int64(20), usage["prompt_tokens"])
	assert.Equal(t, int64(8), usage["output_tokens"])
}

func TestGemini_Translate_KnownSourceSkipsDetection(t *testing.T) {
	calls := 0
	g := newTestGemini(t, func(system, user string) (*googletypes.GoogleResponse, error) {
		calls++
		return geminiReply(t, "Bonjour"), nil
	})

	res, err := g.Translate(context.Background(), "Hello", "fr", "EN")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Bonjour", res.Text)
	assert.Equal(t, "en", res.SourceLang)
}

func TestGemini_Translate_EmptyCandidates(t *testing.T) {
	g := newTestGemini(t, func(system, user string) (*googletypes.GoogleResponse, error) {
		return &googletypes.GoogleResponse{}, nil
	})

	_, err := g.Translate(context.Background(), "Hello", "fr", "en")
	assert.ErrorContains(t, err, "empty response")
}

func TestGemini_Translate_Error(t *testing.T) {
	g := newTestGemini(t, func(system, user string) (*googletypes.GoogleResponse, error) {
		return nil, errors.New("quota exceeded")
	})

	_, err := g.Translate(context.Background(), "Hello", "fr", "en")
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, int64(0), g.Usage(context.Background())["requests"])
}

func TestGemini_Translate_CancelledContext(t *testing.T) {
	called := false
	g := newTestGemini(t, func(system, user string) (*googletypes.GoogleResponse, error) {
		called = true
		return geminiReply(t, "x"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Translate(ctx, "hi", "ko", "en")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestGemini_SupportsLanguage(t *testing.T) {
	g, err := NewGemini(GeminiConfig{APIKey: "k"}, discardLogger())
	require.NoError(t, err)

	assert.True(t, g.SupportsLanguage(context.Background(), "ko"))
	assert.True(t, g.SupportsLanguage(context.Background(), "nl"))
	assert.False(t, g.SupportsLanguage(context.Background(), "klingon"))
}
