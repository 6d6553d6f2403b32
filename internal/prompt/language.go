package prompt

import "strings"

// Language is the hint interpolated into the system instruction. It is a
// heuristic, not a guarantee: the model is still told to mirror the user.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguageSpanish Language = "es"
	LanguageArabic  Language = "ar"
)

// Keyword sets are scanned as substrings of the lowercased message, first
// match wins in fr, es, ar order.
var languageKeywords = []struct {
	lang     Language
	keywords []string
}{
	{LanguageFrench, []string{"bonjour", "salut", "merci", "comment"}},
	{LanguageSpanish, []string{"hola", "gracias", "como", "qué"}},
	{LanguageArabic, []string{"مرحبا", "شكرا", "كيف", "سلام"}},
}

// DetectLanguage guesses the message language from small fixed keyword sets
// and falls back to English for empty or unrecognized input.
func DetectLanguage(message string) Language {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return LanguageEnglish
	}
	lower := strings.ToLower(trimmed)
	for _, set := range languageKeywords {
		for _, keyword := range set.keywords {
			if strings.Contains(lower, keyword) {
				return set.lang
			}
		}
	}
	return LanguageEnglish
}
