package translator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type translateCall struct {
	text       string
	targetLang string
	sourceLang string
}

type fakeTextTranslator struct {
	calls    []translateCall
	detected string
	err      error
}

func (f *fakeTextTranslator) Translate(_ context.Context, text, targetLang, sourceLang string) (Result, error) {
	f.calls = append(f.calls, translateCall{text: text, targetLang: targetLang, sourceLang: sourceLang})
	if f.err != nil {
		return Result{}, f.err
	}
	lang := sourceLang
	if lang == "" {
		lang = f.detected
	}
	return Result{Text: "[" + targetLang + "] " + text, SourceLang: lang}, nil
}

func TestTranslateItem_BodyReusesDetectedLanguage(t *testing.T) {
	fake := &fakeTextTranslator{detected: "en"}
	body := "Body text"

	out, err := translateItem(context.Background(), fake, "Title", &body, "ko", discardLogger())
	require.NoError(t, err)

	require.Len(t, fake.calls, 2)
	assert.Equal(t, translateCall{text: "Title", targetLang: "ko", sourceLang: ""}, fake.calls[0])
	assert.Equal(t, translateCall{text: "Body text", targetLang: "ko", sourceLang: "en"}, fake.calls[1])

	assert.Equal(t, "[ko] Title", out.Title)
	require.NotNil(t, out.Body)
	assert.Equal(t, "[ko] Body text", *out.Body)
	assert.Equal(t, "en", out.SourceLang)
}

func TestTranslateItem_NoBody(t *testing.T) {
	fake := &fakeTextTranslator{detected: "ja"}

	out, err := translateItem(context.Background(), fake, "Title", nil, "en", discardLogger())
	require.NoError(t, err)

	assert.Len(t, fake.calls, 1)
	assert.Nil(t, out.Body)
	assert.Equal(t, "ja", out.SourceLang)
}

func TestTranslateItem_BlankBodySkipped(t *testing.T) {
	fake := &fakeTextTranslator{detected: "ja"}
	body := "   \n"

	out, err := translateItem(context.Background(), fake, "Title", &body, "en", discardLogger())
	require.NoError(t, err)

	assert.Len(t, fake.calls, 1)
	assert.Nil(t, out.Body)
}

func TestTranslateItem_UnknownTitleLanguageDetectsOnBody(t *testing.T) {
	fake := &fakeTextTranslator{detected: UnknownLanguage}
	body := "Body"

	_, err := translateItem(context.Background(), fake, "Title", &body, "en", discardLogger())
	require.NoError(t, err)

	require.Len(t, fake.calls, 2)
	assert.Equal(t, "", fake.calls[1].sourceLang)
}

func TestTranslateItem_Error(t *testing.T) {
	fake := &fakeTextTranslator{err: errors.New("backend down")}

	out, err := translateItem(context.Background(), fake, "Title", nil, "en", discardLogger())

	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("a", MaxTextLength)
	assert.Equal(t, short, truncate(short, discardLogger()))

	long := strings.Repeat("가", MaxTextLength+50)
	got := truncate(long, discardLogger())
	assert.Equal(t, MaxTextLength+3, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestNormalizeDetected(t *testing.T) {
	assert.Equal(t, "en", normalizeDetected(" EN\n"))
	assert.Equal(t, "ko", normalizeDetected("'ko'."))
	assert.Equal(t, "ja", normalizeDetected("ja (Japanese)"))
	assert.Equal(t, UnknownLanguage, normalizeDetected("  "))
}

func TestDetectPrompt_UsesFirst500Runes(t *testing.T) {
	text := strings.Repeat("x", 600)
	prompt := detectPrompt(text)

	assert.Contains(t, prompt, strings.Repeat("x", 500))
	assert.NotContains(t, prompt, strings.Repeat("x", 501))
}
