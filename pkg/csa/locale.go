package csa

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is used when no locale can be resolved from the request
const DefaultLocale = "en"

// ResolveLocale reduces a locale or Accept-Language value to its lowercased base language,
// falling back to DefaultLocale when raw is empty or unparsable
func ResolveLocale(raw string) string {
	return resolveLocale(raw, DefaultLocale)
}

func resolveLocale(raw, fallback string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return fallback
	}

	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return fallback
	}

	// "*" parses as the multiple-languages tag
	tag := tags[0]
	base, _ := tag.Base()
	if tag.IsRoot() || base.String() == "mul" {
		return fallback
	}
	return strings.ToLower(base.String())
}
