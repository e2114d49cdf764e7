// Package storagetest provides an in-memory ordering store for tests.
package storagetest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tableside/tableside/internal/services/ordering/storage"
)

// ErrConditionUnsupported is returned when a query carries a SQL condition.
var ErrConditionUnsupported = errors.New("storagetest: where conditions are not supported")

// Store is a mutex-guarded in-memory CatalogStore and OrderStore.
type Store struct {
	mu     sync.Mutex
	menus  []storage.MenuItem
	orders []storage.Order
	nextID int64

	// Err, when set, is returned by every operation.
	Err error
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Err
}

// CreateMenuItem appends item unless its id is taken.
func (s *Store) CreateMenuItem(ctx context.Context, item storage.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	if s.menuIndex(item.ID) >= 0 {
		return storage.ErrAlreadyExists
	}
	if item.Options == "" {
		item.Options = "[]"
	}
	s.menus = append(s.menus, item)
	return nil
}

// UpdateMenuItem merges patch into the item with id.
func (s *Store) UpdateMenuItem(ctx context.Context, id string, patch storage.MenuItemPatch, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	idx := s.menuIndex(id)
	if idx < 0 {
		return storage.ErrNotFound
	}
	if patch.IsEmpty() {
		return nil
	}
	next := patch.Apply(s.menus[idx])
	next.UpdatedAt = updatedAt
	s.menus[idx] = next
	return nil
}

// DeleteMenuItem removes the item with id.
func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	idx := s.menuIndex(id)
	if idx < 0 {
		return storage.ErrNotFound
	}
	s.menus = slices.Delete(s.menus, idx, idx+1)
	return nil
}

// ListMenuItems returns a copy of every item in insertion order.
func (s *Store) ListMenuItems(ctx context.Context) ([]storage.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(s.menus), nil
}

// CountMenuItems returns the number of items.
func (s *Store) CountMenuItems(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	return len(s.menus), nil
}

// SeedMenuItems appends items when the catalog is empty. A duplicate id in
// items inserts nothing.
func (s *Store) SeedMenuItems(ctx context.Context, items []storage.MenuItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	if len(s.menus) > 0 {
		return 0, nil
	}
	seen := make(map[string]struct{}, len(items))
	batch := make([]storage.MenuItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return 0, storage.ErrAlreadyExists
		}
		seen[item.ID] = struct{}{}
		if item.Options == "" {
			item.Options = "[]"
		}
		batch = append(batch, item)
	}
	s.menus = batch
	return len(batch), nil
}

func (s *Store) menuIndex(id string) int {
	return slices.IndexFunc(s.menus, func(item storage.MenuItem) bool { return item.ID == id })
}

// InsertOrder stores order with the next sequential id.
func (s *Store) InsertOrder(ctx context.Context, order storage.Order) (storage.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return storage.Order{}, err
	}
	s.nextID++
	order.ID = s.nextID
	order.Items = cloneItems(order.Items)
	s.orders = append(s.orders, order)
	return cloneOrder(order), nil
}

// UpdateOrderStatus overwrites the status of order id.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			return nil
		}
	}
	return storage.ErrNotFound
}

// GetOrder returns order id.
func (s *Store) GetOrder(ctx context.Context, id int64) (storage.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return storage.Order{}, err
	}
	for _, order := range s.orders {
		if order.ID == id {
			return cloneOrder(order), nil
		}
	}
	return storage.Order{}, storage.ErrNotFound
}

// ListOrders returns orders matching query. Queries carrying a Where
// condition return ErrConditionUnsupported.
func (s *Store) ListOrders(ctx context.Context, query storage.OrderQuery) ([]storage.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if query.Where != nil && query.Where.Clause != "" {
		return nil, ErrConditionUnsupported
	}

	result := make([]storage.Order, 0)
	for _, order := range s.orders {
		if query.TableNumber > 0 && order.TableNumber != query.TableNumber {
			continue
		}
		if len(query.Statuses) > 0 && !slices.Contains(query.Statuses, order.Status) {
			continue
		}
		if slices.Contains(query.ExcludeStatuses, order.Status) {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	slices.SortStableFunc(result, func(a, b storage.Order) int {
		cmp := a.CreatedAt.Compare(b.CreatedAt)
		if cmp == 0 {
			switch {
			case a.ID < b.ID:
				cmp = -1
			case a.ID > b.ID:
				cmp = 1
			}
		}
		if query.Sort == storage.NewestFirst {
			return -cmp
		}
		return cmp
	})
	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}
	return result, nil
}

func cloneOrder(order storage.Order) storage.Order {
	order.Items = cloneItems(order.Items)
	return order
}

func cloneItems(items []storage.LineItem) []storage.LineItem {
	if items == nil {
		return []storage.LineItem{}
	}
	out := make([]storage.LineItem, len(items))
	for i, item := range items {
		item.SelectedOptions = slices.Clone(item.SelectedOptions)
		if item.SelectedOptions == nil {
			item.SelectedOptions = []storage.MenuOption{}
		}
		out[i] = item
	}
	return out
}

var (
	_ storage.CatalogStore = (*Store)(nil)
	_ storage.OrderStore   = (*Store)(nil)
)
