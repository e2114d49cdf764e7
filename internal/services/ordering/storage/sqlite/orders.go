package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tableside/tableside/internal/services/ordering/storage"
)

const orderColumns = `id, table_number, items, total_price, status, created_at`

func scanOrder(row rowScanner) (storage.Order, error) {
	var order storage.Order
	var items string
	var createdAt int64
	if err := row.Scan(
		&order.ID,
		&order.TableNumber,
		&items,
		&order.TotalPrice,
		&order.Status,
		&createdAt,
	); err != nil {
		return storage.Order{}, err
	}
	if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
		return storage.Order{}, fmt.Errorf("decode order %d items: %w", order.ID, err)
	}
	order.CreatedAt = fromMillis(createdAt)
	return order, nil
}

// InsertOrder stores a new order and returns it with its assigned id.
func (s *Store) InsertOrder(ctx context.Context, order storage.Order) (storage.Order, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Order{}, err
	}
	if order.Items == nil {
		order.Items = []storage.LineItem{}
	}
	for i := range order.Items {
		if order.Items[i].SelectedOptions == nil {
			order.Items[i].SelectedOptions = []storage.MenuOption{}
		}
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return storage.Order{}, fmt.Errorf("encode order items: %w", err)
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.CreatedAt = fromMillis(toMillis(order.CreatedAt))

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO orders (table_number, items, total_price, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		order.TableNumber,
		string(items),
		order.TotalPrice,
		order.Status,
		toMillis(order.CreatedAt),
	)
	if err != nil {
		return storage.Order{}, fmt.Errorf("insert order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storage.Order{}, fmt.Errorf("insert order: %w", err)
	}
	order.ID = id
	return order, nil
}

// UpdateOrderStatus overwrites the status of one order.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetOrder returns one order by id.
func (s *Store) GetOrder(ctx context.Context, id int64) (storage.Order, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Order{}, err
	}
	order, err := scanOrder(s.sqlDB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Order{}, storage.ErrNotFound
		}
		return storage.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns orders matching query.
func (s *Store) ListOrders(ctx context.Context, query storage.OrderQuery) ([]storage.Order, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	statement, params := buildOrderQuery(query)
	rows, err := s.sqlDB.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]storage.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func buildOrderQuery(query storage.OrderQuery) (string, []any) {
	var clauses []string
	var params []any

	if query.TableNumber > 0 {
		clauses = append(clauses, "table_number = ?")
		params = append(params, query.TableNumber)
	}
	if len(query.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+placeholders(len(query.Statuses))+")")
		for _, status := range query.Statuses {
			params = append(params, status)
		}
	}
	if len(query.ExcludeStatuses) > 0 {
		clauses = append(clauses, "status NOT IN ("+placeholders(len(query.ExcludeStatuses))+")")
		for _, status := range query.ExcludeStatuses {
			params = append(params, status)
		}
	}
	if query.Where != nil && strings.TrimSpace(query.Where.Clause) != "" {
		clauses = append(clauses, "("+query.Where.Clause+")")
		params = append(params, query.Where.Params...)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(orderColumns)
	b.WriteString(" FROM orders")
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	if query.Sort == storage.NewestFirst {
		b.WriteString(" ORDER BY created_at DESC, id DESC")
	} else {
		b.WriteString(" ORDER BY created_at ASC, id ASC")
	}
	if query.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, query.Limit)
	}
	return b.String(), params
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
