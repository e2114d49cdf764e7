// Package tables derives which tables currently have open orders.
package tables

import (
	"context"
	"slices"

	apperrors "github.com/tableside/tableside/internal/platform/errors"
	"github.com/tableside/tableside/internal/platform/logging"
	"github.com/tableside/tableside/internal/services/ordering/order"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"go.uber.org/zap"
)

// Tracker reads table occupancy straight from the order store on every call.
type Tracker struct {
	store  storage.OrderStore
	logger *zap.Logger
}

// NewTracker creates a table activity tracker backed by store.
func NewTracker(store storage.OrderStore, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, logger: logging.OrNop(logger)}
}

// ActiveTables returns the distinct table numbers with unsettled orders in
// ascending order.
func (t *Tracker) ActiveTables(ctx context.Context) ([]int, error) {
	if t == nil || t.store == nil {
		return nil, apperrors.New(apperrors.CodeStoreError, "order store is not configured")
	}
	orders, err := t.store.ListOrders(ctx, storage.OrderQuery{
		ExcludeStatuses: []string{string(order.StatusSettled)},
	})
	if err != nil {
		t.logger.Error("order store failure", zap.String("op", "list active tables"), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "list active tables", err)
	}
	return distinctTables(orders), nil
}

func distinctTables(orders []storage.Order) []int {
	seen := make(map[int]struct{}, len(orders))
	tables := make([]int, 0)
	for _, o := range orders {
		if _, ok := seen[o.TableNumber]; ok {
			continue
		}
		seen[o.TableNumber] = struct{}{}
		tables = append(tables, o.TableNumber)
	}
	slices.Sort(tables)
	return tables
}
