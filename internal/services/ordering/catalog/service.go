package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/tableside/tableside/internal/platform/errors"
	"github.com/tableside/tableside/internal/platform/logging"
	platformotel "github.com/tableside/tableside/internal/platform/otel"
	"github.com/tableside/tableside/internal/services/ordering/pricing"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MenuItemInput carries the fields of a new menu item.
type MenuItemInput struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Price         float64              `json:"price"`
	Image         string               `json:"image"`
	Category      string               `json:"category"`
	Options       []storage.MenuOption `json:"options"`
	IsRecommended bool                 `json:"isRecommended"`
}

// MenuItemUpdate carries the menu item fields to change. Nil fields are kept.
type MenuItemUpdate struct {
	Name          *string               `json:"name"`
	Description   *string               `json:"description"`
	Price         *float64              `json:"price"`
	Image         *string               `json:"image"`
	Category      *string               `json:"category"`
	Options       *[]storage.MenuOption `json:"options"`
	IsRecommended *bool                 `json:"isRecommended"`
}

// Service exposes catalog read and admin operations.
type Service struct {
	store  storage.CatalogStore
	logger *zap.Logger
	clock  func() time.Time
	tracer trace.Tracer
}

// NewService creates a catalog service backed by store.
func NewService(store storage.CatalogStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logging.OrNop(logger),
		clock:  time.Now,
		tracer: platformotel.Tracer("services/ordering/catalog"),
	}
}

func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) configured() error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeStoreError, "catalog store is not configured")
	}
	return nil
}

// ListCatalog returns every menu item grouped by category.
func (s *Service) ListCatalog(ctx context.Context) (_ []Category, err error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "catalog.ListCatalog")
	defer func() { endSpan(span, err) }()

	items, err := s.store.ListMenuItems(ctx)
	if err != nil {
		return nil, s.storeError("list menu items", err)
	}
	categories := assemble(items, func(id string, decodeErr error) {
		s.logger.Warn("menu item options are malformed", zap.String("menu_item_id", id), zap.Error(decodeErr))
	})
	span.SetAttributes(attribute.Int("catalog.items", len(items)), attribute.Int("catalog.categories", len(categories)))
	return categories, nil
}

// CreateMenuItem validates and stores a new menu item, returning its id.
func (s *Service) CreateMenuItem(ctx context.Context, in MenuItemInput) (_ string, err error) {
	if err := s.configured(); err != nil {
		return "", err
	}
	ctx, span := s.tracer.Start(ctx, "catalog.CreateMenuItem")
	defer func() { endSpan(span, err) }()

	record, err := s.newRecord(in)
	if err != nil {
		return "", err
	}
	if err := s.store.CreateMenuItem(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return "", apperrors.WithMetadata(apperrors.CodeDuplicateID, "menu item already exists", map[string]string{"ID": record.ID})
		}
		return "", s.storeError("create menu item", err)
	}
	return record.ID, nil
}

func (s *Service) newRecord(in MenuItemInput) (storage.MenuItem, error) {
	id := strings.TrimSpace(in.ID)
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if id == "" {
		return storage.MenuItem{}, invalidField("id", "menu item id is required")
	}
	if name == "" {
		return storage.MenuItem{}, invalidField("name", "menu item name is required")
	}
	if category == "" {
		return storage.MenuItem{}, invalidField("category", "menu item category is required")
	}
	if !pricing.ValidAmount(in.Price) {
		return storage.MenuItem{}, invalidField("price", "menu item price must be a finite non-negative number")
	}
	options, err := encodeValidOptions(in.Options)
	if err != nil {
		return storage.MenuItem{}, err
	}

	now := s.now()
	return storage.MenuItem{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Category:    category,
		Options:     options,
		Recommended: boolToInt(in.IsRecommended),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateMenuItem applies the supplied fields to menu item id.
func (s *Service) UpdateMenuItem(ctx context.Context, id string, in MenuItemUpdate) (_ string, err error) {
	if err := s.configured(); err != nil {
		return "", err
	}
	ctx, span := s.tracer.Start(ctx, "catalog.UpdateMenuItem")
	defer func() { endSpan(span, err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidField("id", "menu item id is required")
	}
	patch, err := buildPatch(in)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateMenuItem(ctx, id, patch, s.now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", notFound(id)
		}
		return "", s.storeError("update menu item", err)
	}
	return id, nil
}

func buildPatch(in MenuItemUpdate) (storage.MenuItemPatch, error) {
	var patch storage.MenuItemPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return storage.MenuItemPatch{}, invalidField("name", "menu item name must not be empty")
		}
		patch.Name = &name
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		patch.Description = &description
	}
	if in.Price != nil {
		if !pricing.ValidAmount(*in.Price) {
			return storage.MenuItemPatch{}, invalidField("price", "menu item price must be a finite non-negative number")
		}
		price := *in.Price
		patch.Price = &price
	}
	if in.Image != nil {
		image := strings.TrimSpace(*in.Image)
		patch.Image = &image
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return storage.MenuItemPatch{}, invalidField("category", "menu item category must not be empty")
		}
		patch.Category = &category
	}
	if in.Options != nil {
		options, err := encodeValidOptions(*in.Options)
		if err != nil {
			return storage.MenuItemPatch{}, err
		}
		patch.Options = &options
	}
	if in.IsRecommended != nil {
		recommended := boolToInt(*in.IsRecommended)
		patch.Recommended = &recommended
	}
	return patch, nil
}

// DeleteMenuItem removes menu item id.
func (s *Service) DeleteMenuItem(ctx context.Context, id string) (_ string, err error) {
	if err := s.configured(); err != nil {
		return "", err
	}
	ctx, span := s.tracer.Start(ctx, "catalog.DeleteMenuItem")
	defer func() { endSpan(span, err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidField("id", "menu item id is required")
	}
	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", notFound(id)
		}
		return "", s.storeError("delete menu item", err)
	}
	return id, nil
}

func encodeValidOptions(options []storage.MenuOption) (string, error) {
	for i, option := range options {
		if !pricing.ValidAmount(option.Price) {
			return "", invalidField(fmt.Sprintf("options[%d].price", i), "option price must be a finite non-negative number")
		}
	}
	encoded, err := EncodeOptions(options)
	if err != nil {
		return "", invalidField("options", "options could not be encoded")
	}
	return encoded, nil
}

func (s *Service) storeError(op string, err error) error {
	s.logger.Error("catalog store failure", zap.String("op", op), zap.Error(err))
	return apperrors.Wrap(apperrors.CodeStoreError, op, err)
}

func invalidField(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, map[string]string{"Field": field})
}

func notFound(id string) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, "menu item not found", map[string]string{"Resource": "menu item", "ID": id})
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}
