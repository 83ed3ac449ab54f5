package api

import (
	"strings"

	"blocks/internal/domain"

	"golang.org/x/text/language"
)

// localeTag converts a stored locale ("en_US") to a BCP 47 tag.
func localeTag(locale string) language.Tag {
	return language.Make(strings.ReplaceAll(locale, "_", "-"))
}

// negotiateLocale returns the locale of the active language that best
// matches an Accept-Language header, or defaultLocale.
func negotiateLocale(header string, langs []domain.Lang, defaultLocale string) string {
	if header == "" {
		return defaultLocale
	}
	preferences, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(preferences) == 0 {
		return defaultLocale
	}

	var (
		supported []language.Tag
		locales   []string
	)
	for _, l := range langs {
		if !l.Active {
			continue
		}
		supported = append(supported, localeTag(l.Locale))
		locales = append(locales, l.Locale)
	}
	if len(supported) == 0 {
		return defaultLocale
	}

	matcher := language.NewMatcher(supported)
	_, index, confidence := matcher.Match(preferences...)
	if confidence == language.No {
		return defaultLocale
	}
	return locales[index]
}
