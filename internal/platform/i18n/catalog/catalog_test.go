package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("ja-JP") {
		t.Fatalf("expected locale ja-JP")
	}
	if got := len(bundle.NamespaceMessages("ja-JP", "statuses")); got != 8 {
		t.Fatalf("ja-JP statuses = %d, want 8", got)
	}
	if got, ok := bundle.Message("ja-JP", "status.SETTLED"); !ok || got != "会計済み" {
		t.Fatalf("status.SETTLED = %q, %v", got, ok)
	}
}

func TestEmbeddedLocalesDefineSameKeys(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	base := bundle.LocaleMessages(BaseLocale)
	for _, locale := range bundle.Locales() {
		messages := bundle.LocaleMessages(locale)
		for key := range base {
			if _, ok := messages[key]; !ok {
				t.Errorf("locale %s missing key %q", locale, key)
			}
		}
	}
}

func TestLoadFromFSRejectsLocaleMismatch(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/errors.yaml"), `locale: "ja-JP"
namespace: "errors"
messages:
  "A": "a"
`)

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRejectsDuplicateKeysAcrossNamespaces(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/errors.yaml"), `locale: "en-US"
namespace: "errors"
messages:
  "a.key": "a"
`)
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/statuses.yaml"), `locale: "en-US"
namespace: "statuses"
messages:
  "a.key": "b"
`)

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/ja-JP/errors.yaml"), `locale: "ja-JP"
namespace: "errors"
messages:
  "A": "a"
`)

	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestNamespaceMessagesWithFallback(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	resolved, messages := bundle.NamespaceMessagesWithFallback("fr-FR", "errors")
	if resolved != "en-US" {
		t.Fatalf("resolved locale = %q, want en-US", resolved)
	}
	if len(messages) == 0 {
		t.Fatal("expected fallback errors namespace messages")
	}
}

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
