// Package storage defines persistence contracts for ordering service state.
//
// The Catalog Store owns menu item records and the Order Store owns order
// records. The two are not linked: an order embeds a value copy of the menu
// data it was placed with, so catalog edits never rewrite order history.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// MenuOption is one add-on a customer may select for a menu item.
type MenuOption struct {
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

// MenuItem stores one catalog entry as it is physically persisted.
//
// Options holds the JSON-encoded option list and Recommended the 0/1 flag;
// decoding and normalization belong to the catalog assembler.
type MenuItem struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Image       string
	Category    string
	Options     string
	Recommended int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MenuItemPatch carries the subset of menu item fields to change. Nil fields
// are left untouched.
type MenuItemPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Image       *string
	Category    *string
	Options     *string
	Recommended *int
}

// IsEmpty reports whether the patch changes nothing.
func (p MenuItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Image == nil &&
		p.Category == nil && p.Options == nil && p.Recommended == nil
}

// Apply merges the supplied fields into item field by field.
func (p MenuItemPatch) Apply(item MenuItem) MenuItem {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Image != nil {
		item.Image = *p.Image
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Options != nil {
		item.Options = *p.Options
	}
	if p.Recommended != nil {
		item.Recommended = *p.Recommended
	}
	return item
}

// CatalogStore persists menu item records.
type CatalogStore interface {
	// CreateMenuItem inserts item; a taken id returns ErrAlreadyExists.
	CreateMenuItem(ctx context.Context, item MenuItem) error
	// UpdateMenuItem applies patch to the item with id; a missing id returns
	// ErrNotFound. An empty patch leaves the item and its UpdatedAt untouched.
	UpdateMenuItem(ctx context.Context, id string, patch MenuItemPatch, updatedAt time.Time) error
	// DeleteMenuItem removes the item with id; a missing id returns ErrNotFound.
	DeleteMenuItem(ctx context.Context, id string) error
	// ListMenuItems returns every item in insertion order.
	ListMenuItems(ctx context.Context) ([]MenuItem, error)
	// CountMenuItems returns the number of stored items.
	CountMenuItems(ctx context.Context) (int, error)
	// SeedMenuItems inserts items as one batch when the catalog is empty and
	// reports how many were inserted. A non-empty catalog yields 0. A failure
	// inserts nothing.
	SeedMenuItems(ctx context.Context, items []MenuItem) (int, error)
}

// LineItem is a point-in-time snapshot of one purchased menu item.
type LineItem struct {
	MenuItemID      string       `json:"menuItemId"`
	Name            string       `json:"name"`
	Price           float64      `json:"price"`
	Quantity        int          `json:"quantity"`
	SelectedOptions []MenuOption `json:"selectedOptions"`
}

// Order stores one customer request.
type Order struct {
	ID          int64
	TableNumber int
	Items       []LineItem
	TotalPrice  float64
	Status      string
	CreatedAt   time.Time
}

// SortOrder selects the creation-time ordering of order listings.
type SortOrder int

const (
	// OldestFirst lists orders by ascending creation time.
	OldestFirst SortOrder = iota
	// NewestFirst lists orders by descending creation time.
	NewestFirst
)

// Condition is a pre-validated SQL WHERE fragment with positional parameters.
type Condition struct {
	Clause string
	Params []any
}

// OrderQuery filters order listings. Zero-valued fields do not filter.
type OrderQuery struct {
	// TableNumber restricts results to one table when positive.
	TableNumber int
	// Statuses restricts results to orders in one of these statuses.
	Statuses []string
	// ExcludeStatuses drops orders in any of these statuses.
	ExcludeStatuses []string
	// Where adds a filter condition; stores that cannot evaluate it reject the query.
	Where *Condition
	// Sort selects the creation-time ordering; ties break on id the same way.
	Sort SortOrder
	// Limit caps the number of results when positive.
	Limit int
}

// OrderStore persists order records.
type OrderStore interface {
	// InsertOrder stores order, assigning its id, and returns the stored record.
	InsertOrder(ctx context.Context, order Order) (Order, error)
	// UpdateOrderStatus sets the status of order id; a missing id returns ErrNotFound.
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
	// GetOrder returns the order with id; a missing id returns ErrNotFound.
	GetOrder(ctx context.Context, id int64) (Order, error)
	// ListOrders returns orders matching query.
	ListOrders(ctx context.Context, query OrderQuery) ([]Order, error)
}
