// Package i18n resolves request locales and renders localized labels.
package i18n

import (
	"strings"

	"github.com/tableside/tableside/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{
	language.Japanese,
	language.AmericanEnglish,
}

// The first supported tag is the fallback for unmatched requests.
var matcher = language.NewMatcher([]language.Tag{
	language.MustParse("ja-JP"),
	language.AmericanEnglish,
})

// SupportedTags returns the supported language tags in preference order.
func SupportedTags() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// DefaultTag returns the default language tag.
func DefaultTag() language.Tag {
	return language.MustParse("ja-JP")
}

// MatchTags picks the best supported tag for the given preferences. Requests
// with no confident match get the default tag.
func MatchTags(tags []language.Tag) language.Tag {
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultTag()
	}
	switch index {
	case 1:
		return language.AmericanEnglish
	default:
		return DefaultTag()
	}
}

// ParseTag parses a language value and matches it against supported tags.
func ParseTag(value string) (language.Tag, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return language.Und, false
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, false
	}
	_, _, confidence := matcher.Match(tag)
	if confidence == language.No {
		return language.Und, false
	}
	return MatchTags([]language.Tag{tag}), true
}

// ResolveAcceptLanguage matches an Accept-Language header value.
func ResolveAcceptLanguage(header string) language.Tag {
	if strings.TrimSpace(header) == "" {
		return DefaultTag()
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultTag()
	}
	return MatchTags(tags)
}

// Locale returns the catalog locale identifier for a tag.
func Locale(tag language.Tag) string {
	if tag == language.AmericanEnglish {
		return catalog.BaseLocale
	}
	return "ja-JP"
}

// StatusLabel renders the localized label for an order status code.
func StatusLabel(tag language.Tag, status string) string {
	key := "status." + strings.TrimSpace(status)
	// Force registration of the embedded catalogs before printing.
	_ = catalog.Default()
	return message.NewPrinter(tag).Sprintf(key)
}
