package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/tableside/tableside/internal/platform/errors"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed default_menu.yaml
var defaultMenu []byte

// Seed is an initial catalog definition grouped by category.
type Seed struct {
	Categories []SeedCategory `json:"categories" yaml:"categories"`
}

// SeedCategory lists the items of one category.
type SeedCategory struct {
	Name  string     `json:"name" yaml:"name"`
	Items []SeedItem `json:"items" yaml:"items"`
}

// SeedItem is one menu item in a seed file.
type SeedItem struct {
	ID            string               `json:"id" yaml:"id"`
	Name          string               `json:"name" yaml:"name"`
	Description   string               `json:"description" yaml:"description"`
	Price         float64              `json:"price" yaml:"price"`
	Image         string               `json:"image" yaml:"image"`
	Options       []storage.MenuOption `json:"options" yaml:"options"`
	IsRecommended bool                 `json:"isRecommended" yaml:"isRecommended"`
}

// Size returns the number of items in the seed.
func (s Seed) Size() int {
	total := 0
	for _, category := range s.Categories {
		total += len(category.Items)
	}
	return total
}

// DefaultSeed returns the embedded default menu.
func DefaultSeed() (Seed, error) {
	return ParseSeed(defaultMenu, "yaml")
}

// LoadSeed reads a seed file, choosing the decoder by extension. An empty
// path loads the embedded default menu.
func LoadSeed(path string) (Seed, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	seed, err := ParseSeed(data, format)
	if err != nil {
		return Seed{}, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return seed, nil
}

// ParseSeed decodes seed data in the given format ("json" or "yaml").
func ParseSeed(data []byte, format string) (Seed, error) {
	var seed Seed
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&seed); err != nil {
			return Seed{}, fmt.Errorf("decode yaml seed: %w", err)
		}
	case "json", "":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&seed); err != nil {
			return Seed{}, fmt.Errorf("decode json seed: %w", err)
		}
	default:
		return Seed{}, fmt.Errorf("unsupported seed format %q", format)
	}
	return seed, nil
}

// EnsureSeeded loads seed into an empty catalog and reports how many items
// were inserted. A catalog that already has items is left untouched. The seed
// is validated up front and written as one batch, so a failure leaves the
// catalog empty and a later call can seed it again.
func (s *Service) EnsureSeeded(ctx context.Context, seed Seed) (int, error) {
	if err := s.configured(); err != nil {
		return 0, err
	}
	count, err := s.store.CountMenuItems(ctx)
	if err != nil {
		return 0, s.storeError("count menu items", err)
	}
	if count > 0 {
		s.logger.Debug("catalog already seeded", zap.Int("items", count))
		return 0, nil
	}

	records, err := s.seedRecords(seed)
	if err != nil {
		s.logger.Error("seed catalog", zap.Error(err))
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	inserted, err := s.store.SeedMenuItems(ctx, records)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			err = apperrors.Wrap(apperrors.CodeDuplicateID, "seed menu item already exists", err)
		} else {
			err = s.storeError("seed menu items", err)
		}
		s.logger.Error("seed catalog", zap.Error(err))
		return 0, err
	}
	if inserted == 0 {
		s.logger.Debug("catalog seeded concurrently")
		return 0, nil
	}
	s.logger.Info("catalog seeded", zap.Int("items", inserted))
	return inserted, nil
}

func (s *Service) seedRecords(seed Seed) ([]storage.MenuItem, error) {
	records := make([]storage.MenuItem, 0, seed.Size())
	seen := make(map[string]struct{}, seed.Size())
	for _, category := range seed.Categories {
		for _, item := range category.Items {
			record, err := s.newRecord(MenuItemInput{
				ID:            item.ID,
				Name:          item.Name,
				Description:   item.Description,
				Price:         item.Price,
				Image:         item.Image,
				Category:      category.Name,
				Options:       item.Options,
				IsRecommended: item.IsRecommended,
			})
			if err != nil {
				return nil, fmt.Errorf("seed menu item %q: %w", item.ID, err)
			}
			if _, dup := seen[record.ID]; dup {
				return nil, apperrors.WithMetadata(apperrors.CodeDuplicateID, "seed menu item already exists", map[string]string{"ID": record.ID})
			}
			seen[record.ID] = struct{}{}
			records = append(records, record)
		}
	}
	return records, nil
}
