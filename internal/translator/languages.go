package translator

import "strings"

// languageNames maps ISO 639-1 codes to the names used in LLM prompts.
var languageNames = map[string]string{
	"ko": "Korean",
	"ja": "Japanese",
	"zh": "Chinese",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ar": "Arabic",
	"en": "English",
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// generativeSupports is the language check shared by LLM backends: any known
// name or any two-letter code.
func generativeSupports(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	_, known := languageNames[code]
	return known || len(code) == 2
}

// normalizeDetected cleans an LLM language-detection answer down to a code.
func normalizeDetected(answer string) string {
	answer = strings.ToLower(strings.TrimSpace(answer))
	answer = strings.Trim(answer, "'\"`.")
	if answer == "" {
		return UnknownLanguage
	}
	if fields := strings.Fields(answer); len(fields) > 0 {
		answer = fields[0]
	}
	return answer
}

func detectPrompt(text string) string {
	runes := []rune(text)
	if len(runes) > 500 {
		runes = runes[:500]
	}
	return "Identify the language of the following text. " +
		"Respond with ONLY the ISO 639-1 language code (e.g., 'en', 'ko', 'ja'). " +
		"Text: " + string(runes)
}

func translatePrompt(text, targetLang string) string {
	return "Translate the following text to " + languageName(targetLang) + ". " +
		"Provide ONLY the translation without any explanations or additional text.\n\n" +
		"Text to translate:\n" + text
}
