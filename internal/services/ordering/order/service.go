// Package order validates, prices and advances customer orders.
package order

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/tableside/tableside/internal/platform/errors"
	"github.com/tableside/tableside/internal/platform/logging"
	platformotel "github.com/tableside/tableside/internal/platform/otel"
	"github.com/tableside/tableside/internal/platform/pagination"
	"github.com/tableside/tableside/internal/services/ordering/filter"
	"github.com/tableside/tableside/internal/services/ordering/pricing"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// StaffCallItemID identifies the synthetic line item of a staff call.
	StaffCallItemID = "staff-call"
	// StaffCallItemName names the synthetic line item of a staff call.
	StaffCallItemName = "Staff call"

	defaultSearchPageSize = 50
	maxSearchPageSize     = 200
)

// StatusChange reports the outcome of a status update.
type StatusChange struct {
	ID     int64  `json:"id"`
	Status Status `json:"status"`
}

// SearchRequest selects a page of order history.
type SearchRequest struct {
	// Filter is an AIP-160 expression over table_number, status,
	// total_price and created_at.
	Filter   string
	PageSize int
}

// Service manages order creation, status changes and order listings.
type Service struct {
	store  storage.OrderStore
	logger *zap.Logger
	clock  func() time.Time
	tracer trace.Tracer
}

// NewService creates an order service backed by store.
func NewService(store storage.OrderStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logging.OrNop(logger),
		clock:  time.Now,
		tracer: platformotel.Tracer("services/ordering/order"),
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
		return apperrors.New(apperrors.CodeStoreError, "order store is not configured")
	}
	return nil
}

// CreateOrder prices items and stores a new RECEIVED order for tableNumber.
func (s *Service) CreateOrder(ctx context.Context, tableNumber int, items []storage.LineItem) (_ storage.Order, err error) {
	if err := s.configured(); err != nil {
		return storage.Order{}, err
	}
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder", trace.WithAttributes(attribute.Int("order.table_number", tableNumber)))
	defer func() { endSpan(span, err) }()

	if tableNumber <= 0 {
		return storage.Order{}, invalidField("tableNumber", "table number must be a positive integer")
	}
	if len(items) == 0 {
		return storage.Order{}, invalidField("items", "order items are required")
	}

	lines := normalizeItems(items)
	total, err := pricing.OrderTotal(lines)
	if err != nil {
		return storage.Order{}, err
	}

	stored, err := s.store.InsertOrder(ctx, storage.Order{
		TableNumber: tableNumber,
		Items:       lines,
		TotalPrice:  total,
		Status:      string(StatusReceived),
		CreatedAt:   s.now(),
	})
	if err != nil {
		return storage.Order{}, s.storeError("insert order", err)
	}
	span.SetAttributes(attribute.Int64("order.id", stored.ID))
	s.logger.Info("order received",
		zap.Int64("order_id", stored.ID),
		zap.Int("table_number", tableNumber),
		zap.Float64("total_price", total),
	)
	return stored, nil
}

// CreateStaffCall stores a zero-priced CALLED order signalling tableNumber
// wants attention.
func (s *Service) CreateStaffCall(ctx context.Context, tableNumber int) (_ storage.Order, err error) {
	if err := s.configured(); err != nil {
		return storage.Order{}, err
	}
	ctx, span := s.tracer.Start(ctx, "order.CreateStaffCall", trace.WithAttributes(attribute.Int("order.table_number", tableNumber)))
	defer func() { endSpan(span, err) }()

	if tableNumber <= 0 {
		return storage.Order{}, invalidField("tableNumber", "table number must be a positive integer")
	}
	stored, err := s.store.InsertOrder(ctx, storage.Order{
		TableNumber: tableNumber,
		Items: []storage.LineItem{{
			MenuItemID:      StaffCallItemID,
			Name:            StaffCallItemName,
			Price:           0,
			Quantity:        1,
			SelectedOptions: []storage.MenuOption{},
		}},
		TotalPrice: 0,
		Status:     string(StatusCalled),
		CreatedAt:  s.now(),
	})
	if err != nil {
		return storage.Order{}, s.storeError("insert staff call", err)
	}
	s.logger.Info("staff call", zap.Int64("order_id", stored.ID), zap.Int("table_number", tableNumber))
	return stored, nil
}

// SetStatus moves order id to status. Any allowed status is accepted from
// any current status.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (_ StatusChange, err error) {
	if err := s.configured(); err != nil {
		return StatusChange{}, err
	}
	ctx, span := s.tracer.Start(ctx, "order.SetStatus", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()

	next, ok := NormalizeStatus(status)
	if !ok {
		return StatusChange{}, apperrors.WithMetadata(apperrors.CodeInvalidStatus, "status is not allowed", map[string]string{
			"Status":  status,
			"Allowed": strings.Join(statusStrings(AllowedStatuses()), ", "),
		})
	}
	if id <= 0 {
		return StatusChange{}, notFound(id)
	}
	if err := s.store.UpdateOrderStatus(ctx, id, string(next)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return StatusChange{}, notFound(id)
		}
		return StatusChange{}, s.storeError("update order status", err)
	}
	s.logger.Info("order status changed", zap.Int64("order_id", id), zap.String("status", string(next)))
	return StatusChange{ID: id, Status: next}, nil
}

// ListForTable returns the unsettled orders of tableNumber, newest first.
func (s *Service) ListForTable(ctx context.Context, tableNumber int) (_ []storage.Order, err error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "order.ListForTable", trace.WithAttributes(attribute.Int("order.table_number", tableNumber)))
	defer func() { endSpan(span, err) }()

	if tableNumber <= 0 {
		return nil, invalidField("tableNumber", "table number must be a positive integer")
	}
	orders, err := s.store.ListOrders(ctx, storage.OrderQuery{
		TableNumber:     tableNumber,
		ExcludeStatuses: []string{string(StatusSettled)},
		Sort:            storage.NewestFirst,
	})
	if err != nil {
		return nil, s.storeError("list table orders", err)
	}
	return orders, nil
}

// ListForKitchen returns the orders the kitchen still acts on, oldest first.
func (s *Service) ListForKitchen(ctx context.Context) (_ []storage.Order, err error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "order.ListForKitchen")
	defer func() { endSpan(span, err) }()

	orders, err := s.store.ListOrders(ctx, storage.OrderQuery{
		Statuses: statusStrings(KitchenStatuses()),
		Sort:     storage.OldestFirst,
	})
	if err != nil {
		return nil, s.storeError("list kitchen orders", err)
	}
	return orders, nil
}

// SearchOrders returns one page of order history matching req, newest first.
func (s *Service) SearchOrders(ctx context.Context, req SearchRequest) (_ []storage.Order, err error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "order.SearchOrders")
	defer func() { endSpan(span, err) }()

	condition, err := filter.ParseOrderFilter(req.Filter, normalizeStatusCode)
	if err != nil {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidInput, err.Error(), map[string]string{"Field": "filter"})
	}
	pageSize := pagination.ClampPageSize(req.PageSize, pagination.PageSizeConfig{
		Default: defaultSearchPageSize,
		Max:     maxSearchPageSize,
	})
	orders, err := s.store.ListOrders(ctx, storage.OrderQuery{
		Where: condition,
		Sort:  storage.NewestFirst,
		Limit: pageSize,
	})
	if err != nil {
		return nil, s.storeError("search orders", err)
	}
	return orders, nil
}

func normalizeStatusCode(value string) (string, bool) {
	status, ok := NormalizeStatus(value)
	return string(status), ok
}

func normalizeItems(items []storage.LineItem) []storage.LineItem {
	lines := make([]storage.LineItem, len(items))
	for i, item := range items {
		options := make([]storage.MenuOption, len(item.SelectedOptions))
		for j, option := range item.SelectedOptions {
			options[j] = storage.MenuOption{Name: strings.TrimSpace(option.Name), Price: option.Price}
		}
		lines[i] = storage.LineItem{
			MenuItemID:      strings.TrimSpace(item.MenuItemID),
			Name:            strings.TrimSpace(item.Name),
			Price:           item.Price,
			Quantity:        item.Quantity,
			SelectedOptions: options,
		}
	}
	return lines
}

func (s *Service) storeError(op string, err error) error {
	s.logger.Error("order store failure", zap.String("op", op), zap.Error(err))
	return apperrors.Wrap(apperrors.CodeStoreError, op, err)
}

func invalidField(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, map[string]string{"Field": field})
}

func notFound(id int64) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, "order not found", map[string]string{"Resource": "order", "ID": strconv.FormatInt(id, 10)})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}
