package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tableside/tableside/internal/services/ordering/storage"
)

const menuColumns = `id, name, description, price, image, category, options, is_recommended, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(row rowScanner) (storage.MenuItem, error) {
	var item storage.MenuItem
	var createdAt, updatedAt int64
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Image,
		&item.Category,
		&item.Options,
		&item.Recommended,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.MenuItem{}, err
	}
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return item, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateMenuItem inserts one menu item.
func (s *Store) CreateMenuItem(ctx context.Context, item storage.MenuItem) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return insertMenuItem(ctx, s.sqlDB, item)
}

// SeedMenuItems inserts items in a single transaction when menus is empty.
func (s *Store) SeedMenuItems(ctx context.Context, items []storage.MenuItem) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed menu items: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM menus`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count menu items: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	for _, item := range items {
		if err := insertMenuItem(ctx, tx, item); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed menu items: %w", err)
	}
	return len(items), nil
}

func insertMenuItem(ctx context.Context, db execer, item storage.MenuItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("menu item id is required")
	}
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	options := item.Options
	if strings.TrimSpace(options) == "" {
		options = "[]"
	}

	_, err := db.ExecContext(
		ctx,
		`INSERT INTO menus (`+menuColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Name,
		item.Description,
		item.Price,
		item.Image,
		item.Category,
		options,
		item.Recommended,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create menu item: %w", err)
	}
	return nil
}

// UpdateMenuItem merges patch into one menu item inside a transaction.
func (s *Store) UpdateMenuItem(ctx context.Context, id string, patch storage.MenuItemPatch, updatedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update menu item: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanMenuItem(tx.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menus WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("load menu item: %w", err)
	}
	if patch.IsEmpty() {
		return nil
	}
	next := patch.Apply(current)
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE menus
		    SET name = ?, description = ?, price = ?, image = ?, category = ?,
		        options = ?, is_recommended = ?, updated_at = ?
		  WHERE id = ?`,
		next.Name,
		next.Description,
		next.Price,
		next.Image,
		next.Category,
		next.Options,
		next.Recommended,
		toMillis(updatedAt),
		id,
	); err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit menu item update: %w", err)
	}
	return nil
}

// DeleteMenuItem removes one menu item.
func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM menus WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListMenuItems returns every menu item in insertion order.
func (s *Store) ListMenuItems(ctx context.Context) ([]storage.MenuItem, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+menuColumns+` FROM menus ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []storage.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list menu items: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

// CountMenuItems returns the number of menu items.
func (s *Store) CountMenuItems(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM menus`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count menu items: %w", err)
	}
	return count, nil
}
