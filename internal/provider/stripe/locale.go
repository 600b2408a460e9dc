package stripe

import "strings"

// Locales Stripe Checkout can render. Anything else falls back to auto.
var supportedLocales = []string{
	"bg", "cs", "da", "de", "el", "en",
	"en-GB", "es", "es-419", "et", "fi", "fil",
	"fr", "fr-CA", "hr", "hu", "id", "it",
	"ja", "ko", "lt", "lv", "ms", "mt",
	"nb", "nl", "pl", "pt", "pt-BR", "ro",
	"ru", "sk", "sl", "sv", "th", "tr",
	"vi", "zh", "zh-HK", "zh-TW",
}

func bestMatchLocale(locale string) string {
	for _, supported := range supportedLocales {
		if strings.EqualFold(supported, locale) {
			return supported
		}
	}

	if language, _, found := strings.Cut(locale, "-"); found && language != "" {
		for _, supported := range supportedLocales {
			if strings.EqualFold(supported, language) {
				return supported
			}
		}
	}

	return "auto"
}
