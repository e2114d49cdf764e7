// Package i18n renders localized user-facing text for domain error codes.
//
// Messages come from the "errors" namespace of the embedded locale catalogs and
// are text/template strings fed with the error's metadata.
package i18n

import (
	"strings"
	"sync"
	"text/template"

	i18ncatalog "github.com/tableside/tableside/internal/platform/i18n/catalog"
)

// Code is an error code string. It mirrors errors.Code without importing it.
type Code = string

const namespace = "errors"

// Catalog holds the parsed message templates of one locale.
type Catalog struct {
	locale    string
	raw       map[Code]string
	templates map[Code]*template.Template
}

// catalogs caches catalogs by requested and resolved locale.
var catalogs sync.Map

// GetCatalog returns the catalog for locale, falling back to the base locale
// when the locale has no error messages.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = i18ncatalog.BaseLocale
	}
	if cached, ok := catalogs.Load(requested); ok {
		return cached.(*Catalog)
	}

	resolved, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(requested, namespace)
	if cached, ok := catalogs.Load(resolved); ok {
		catalogs.Store(requested, cached)
		return cached.(*Catalog)
	}

	built, _ := catalogs.LoadOrStore(resolved, NewCatalog(resolved, messages))
	catalogs.Store(requested, built)
	return built.(*Catalog)
}

// RegisterCatalog installs cat for locale, replacing any cached catalog.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogs.Store(locale, cat)
}

// NewCatalog parses messages into a catalog. Templates that fail to parse are
// kept as raw text.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cat := &Catalog{
		locale:    locale,
		raw:       make(map[Code]string, len(messages)),
		templates: make(map[Code]*template.Template, len(messages)),
	}
	for code, text := range messages {
		cat.raw[code] = text
		if tmpl, err := template.New(code).Option("missingkey=zero").Parse(text); err == nil {
			cat.templates[code] = tmpl
		}
	}
	return cat
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for code with metadata. Unknown codes render as
// the code itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	raw, ok := c.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := c.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, metadata); err != nil {
		return raw
	}
	return out.String()
}
