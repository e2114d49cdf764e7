// Package catalog loads the embedded locale message files and registers them
// with golang.org/x/text/message.
//
// Files live at locales/<locale>/<namespace>.yaml. Keys must be unique across
// all namespaces of one locale so printers can look them up without a
// namespace prefix.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every other catalog falls back to.
const BaseLocale = "en-US"

const catalogGlob = "locales/*/*.yaml"

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds every loaded locale, keyed by locale then namespace.
type Bundle struct {
	locales map[string]map[string]map[string]string
}

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

var defaultBundle = mustLoadAndRegisterEmbedded()

// Default returns the process-wide embedded bundle.
func Default() *Bundle {
	return defaultBundle
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads every catalog file under locales/ in catalogFS.
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, catalogGlob)
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	slices.Sort(paths)

	bundle := &Bundle{locales: map[string]map[string]map[string]string{}}
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := bundle.add(p, file); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}
	}

	if !bundle.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	return bundle, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	locale := strings.TrimSpace(file.Locale)
	namespace := strings.TrimSpace(file.Namespace)
	if want := path.Base(path.Dir(p)); locale != want {
		return fmt.Errorf("locale %q must match path locale %q", locale, want)
	}
	if want := strings.TrimSuffix(path.Base(p), path.Ext(p)); namespace != want {
		return fmt.Errorf("namespace %q must match file name %q", namespace, want)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("messages are required")
	}

	namespaces, ok := b.locales[locale]
	if !ok {
		namespaces = map[string]map[string]string{}
		b.locales[locale] = namespaces
	}
	if _, exists := namespaces[namespace]; exists {
		return fmt.Errorf("namespace %q already defined for %s", namespace, locale)
	}

	messages := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("message key cannot be blank")
		}
		if _, dup := b.lookup(locale, key); dup {
			return fmt.Errorf("duplicate key %q in %s", key, locale)
		}
		messages[key] = value
	}
	namespaces[namespace] = messages
	return nil
}

func (b *Bundle) lookup(locale, key string) (string, bool) {
	for _, messages := range b.locales[locale] {
		if value, ok := messages[key]; ok {
			return value, true
		}
	}
	return "", false
}

// Register installs every message with x/text/message under the locale tag
// and, for regional locales, its bare language.
func (b *Bundle) Register() error {
	if b == nil {
		return nil
	}
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		tags := []language.Tag{tag}
		if base, confidence := tag.Base(); confidence != language.No {
			if baseTag := language.Make(base.String()); baseTag != tag {
				tags = append(tags, baseTag)
			}
		}

		messages := b.LocaleMessages(locale)
		for _, key := range slices.Sorted(maps.Keys(messages)) {
			for _, t := range tags {
				if err := message.SetString(t, key, messages[key]); err != nil {
					return fmt.Errorf("register %s/%s: %w", locale, key, err)
				}
			}
		}
	}
	return nil
}

// HasLocale reports whether locale was loaded.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns the loaded locale identifiers in sorted order.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.locales))
}

// LocaleMessages returns a copy of every message of one locale.
func (b *Bundle) LocaleMessages(locale string) map[string]string {
	out := map[string]string{}
	if b == nil {
		return out
	}
	for _, messages := range b.locales[strings.TrimSpace(locale)] {
		maps.Copy(out, messages)
	}
	return out
}

// Message returns one message, falling back to the base locale.
func (b *Bundle) Message(locale string, key string) (string, bool) {
	if b == nil {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	if value, ok := b.lookup(strings.TrimSpace(locale), key); ok {
		return value, true
	}
	return b.lookup(BaseLocale, key)
}

// NamespaceMessages returns a copy of one namespace of one locale.
func (b *Bundle) NamespaceMessages(locale string, namespace string) map[string]string {
	if b == nil {
		return map[string]string{}
	}
	out := map[string]string{}
	maps.Copy(out, b.locales[strings.TrimSpace(locale)][strings.TrimSpace(namespace)])
	return out
}

// NamespaceMessagesWithFallback returns the namespace for locale, or the base
// locale's when locale does not define it, along with the locale used.
func (b *Bundle) NamespaceMessagesWithFallback(locale string, namespace string) (string, map[string]string) {
	locale = strings.TrimSpace(locale)
	if messages := b.NamespaceMessages(locale, namespace); len(messages) > 0 {
		return locale, messages
	}
	return BaseLocale, b.NamespaceMessages(BaseLocale, namespace)
}

func mustLoadAndRegisterEmbedded() *Bundle {
	bundle, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	if err := bundle.Register(); err != nil {
		panic(err)
	}
	return bundle
}
