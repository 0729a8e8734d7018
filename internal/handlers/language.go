package handlers

import "unicode"

// Language constants
const (
	LangArabic  = "ar"
	LangEnglish = "en"
)

// DetectLanguage determines the reply language for a message by script.
// Returns "ar" when Arabic letters dominate, "en" when Latin letters dominate.
// Mixed or empty text defaults to Arabic, which is the market default.
func DetectLanguage(text string) string {
	arabic := 0
	latin := 0

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.IsLetter(r) && r < 0x024F:
			latin++
		}
	}

	if latin > arabic {
		return LangEnglish
	}
	return LangArabic
}
