// Package mcptools exposes kitchen and floor operations as MCP tools for staff
// assistants.
package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	apperrors "github.com/tableside/tableside/internal/platform/errors"
	errori18n "github.com/tableside/tableside/internal/platform/errors/i18n"
	"github.com/tableside/tableside/internal/platform/i18n"
	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/order"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"golang.org/x/text/language"
)

// RequestIDMetaKey is the tool result metadata key carrying the call id.
const RequestIDMetaKey = "x-request-id"

// CatalogLister reads the assembled menu.
type CatalogLister interface {
	ListCatalog(ctx context.Context) ([]catalog.Category, error)
}

// OrderService is the order surface the tools call.
type OrderService interface {
	ListForKitchen(ctx context.Context) ([]storage.Order, error)
	ListForTable(ctx context.Context, tableNumber int) ([]storage.Order, error)
	SetStatus(ctx context.Context, id int64, status string) (order.StatusChange, error)
}

// TableTracker reports occupied tables.
type TableTracker interface {
	ActiveTables(ctx context.Context) ([]int, error)
}

// OrderResult is one order as reported to assistants.
type OrderResult struct {
	ID          int64            `json:"id" jsonschema:"order identifier"`
	TableNumber int              `json:"table_number" jsonschema:"table the order belongs to"`
	Items       []LineItemResult `json:"items" jsonschema:"line items as ordered"`
	TotalPrice  float64          `json:"total_price" jsonschema:"order total"`
	Status      string           `json:"status" jsonschema:"status code"`
	StatusLabel string           `json:"status_label" jsonschema:"localized status label"`
	CreatedAt   string           `json:"created_at" jsonschema:"RFC3339 creation timestamp"`
}

// LineItemResult is one ordered menu item.
type LineItemResult struct {
	MenuItemID string   `json:"menu_item_id,omitempty" jsonschema:"menu item identifier"`
	Name       string   `json:"name" jsonschema:"menu item name"`
	Price      float64  `json:"price" jsonschema:"unit price"`
	Quantity   int      `json:"quantity" jsonschema:"quantity ordered"`
	Options    []string `json:"options,omitempty" jsonschema:"selected option names"`
}

// OrderListResult wraps a list of orders.
type OrderListResult struct {
	Orders []OrderResult `json:"orders" jsonschema:"matching orders"`
}

// KitchenOrdersInput is the kitchen_orders input.
type KitchenOrdersInput struct {
	Locale string `json:"locale,omitempty" jsonschema:"locale for status labels and errors (ja-JP or en-US, default ja-JP)"`
}

// TableOrdersInput is the table_orders input.
type TableOrdersInput struct {
	TableNumber int    `json:"table_number" jsonschema:"table number to list unsettled orders for"`
	Locale      string `json:"locale,omitempty" jsonschema:"locale for status labels and errors (ja-JP or en-US, default ja-JP)"`
}

// OrderStatusSetInput is the order_status_set input.
type OrderStatusSetInput struct {
	OrderID int64  `json:"order_id" jsonschema:"order identifier"`
	Status  string `json:"status" jsonschema:"new status code (RECEIVED, PREPARING, READY, SERVED, SETTLED, CANCELLED, CALLED, KITCHEN_DONE)"`
	Locale  string `json:"locale,omitempty" jsonschema:"locale for status labels and errors (ja-JP or en-US, default ja-JP)"`
}

// OrderStatusSetResult reports the applied status.
type OrderStatusSetResult struct {
	ID          int64  `json:"id" jsonschema:"order identifier"`
	Status      string `json:"status" jsonschema:"stored status code"`
	StatusLabel string `json:"status_label" jsonschema:"localized status label"`
}

// ActiveTablesInput is the active_tables input.
type ActiveTablesInput struct{}

// ActiveTablesResult lists occupied tables.
type ActiveTablesResult struct {
	Tables []int `json:"tables" jsonschema:"table numbers with unsettled orders, ascending"`
}

// MenuListInput is the menu_list input.
type MenuListInput struct{}

// MenuListResult is the assembled menu.
type MenuListResult struct {
	Categories []catalog.Category `json:"categories" jsonschema:"menu categories in first-seen order"`
}

// KitchenOrdersTool defines the kitchen queue tool.
func KitchenOrdersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "kitchen_orders",
		Description: "Lists orders the kitchen still has to handle, oldest first",
	}
}

// KitchenOrdersHandler lists the kitchen queue.
func KitchenOrdersHandler(orders OrderService) mcp.ToolHandlerFor[KitchenOrdersInput, OrderListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input KitchenOrdersInput) (*mcp.CallToolResult, OrderListResult, error) {
		tag := localeTag(input.Locale)
		list, err := orders.ListForKitchen(ctx)
		if err != nil {
			return nil, OrderListResult{}, toolError(tag, "kitchen orders", err)
		}
		return newCallResult(), OrderListResult{Orders: orderResults(tag, list)}, nil
	}
}

// TableOrdersTool defines the per-table order tool.
func TableOrdersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "table_orders",
		Description: "Lists unsettled orders for one table, newest first",
	}
}

// TableOrdersHandler lists orders for a table.
func TableOrdersHandler(orders OrderService) mcp.ToolHandlerFor[TableOrdersInput, OrderListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TableOrdersInput) (*mcp.CallToolResult, OrderListResult, error) {
		tag := localeTag(input.Locale)
		list, err := orders.ListForTable(ctx, input.TableNumber)
		if err != nil {
			return nil, OrderListResult{}, toolError(tag, "table orders", err)
		}
		return newCallResult(), OrderListResult{Orders: orderResults(tag, list)}, nil
	}
}

// OrderStatusSetTool defines the status update tool.
func OrderStatusSetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "order_status_set",
		Description: "Sets the status of an order; accepts status codes and legacy Japanese labels",
	}
}

// OrderStatusSetHandler updates an order's status.
func OrderStatusSetHandler(orders OrderService) mcp.ToolHandlerFor[OrderStatusSetInput, OrderStatusSetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OrderStatusSetInput) (*mcp.CallToolResult, OrderStatusSetResult, error) {
		tag := localeTag(input.Locale)
		change, err := orders.SetStatus(ctx, input.OrderID, input.Status)
		if err != nil {
			return nil, OrderStatusSetResult{}, toolError(tag, "order status set", err)
		}
		return newCallResult(), OrderStatusSetResult{
			ID:          change.ID,
			Status:      string(change.Status),
			StatusLabel: i18n.StatusLabel(tag, string(change.Status)),
		}, nil
	}
}

// ActiveTablesTool defines the occupied tables tool.
func ActiveTablesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "active_tables",
		Description: "Lists tables that have at least one unsettled order",
	}
}

// ActiveTablesHandler lists occupied tables.
func ActiveTablesHandler(tables TableTracker) mcp.ToolHandlerFor[ActiveTablesInput, ActiveTablesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ActiveTablesInput) (*mcp.CallToolResult, ActiveTablesResult, error) {
		active, err := tables.ActiveTables(ctx)
		if err != nil {
			return nil, ActiveTablesResult{}, toolError(i18n.DefaultTag(), "active tables", err)
		}
		if active == nil {
			active = []int{}
		}
		return newCallResult(), ActiveTablesResult{Tables: active}, nil
	}
}

// MenuListTool defines the menu tool.
func MenuListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "menu_list",
		Description: "Returns the menu grouped by category",
	}
}

// MenuListHandler returns the assembled menu.
func MenuListHandler(menu CatalogLister) mcp.ToolHandlerFor[MenuListInput, MenuListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ MenuListInput) (*mcp.CallToolResult, MenuListResult, error) {
		categories, err := menu.ListCatalog(ctx)
		if err != nil {
			return nil, MenuListResult{}, toolError(i18n.DefaultTag(), "menu list", err)
		}
		if categories == nil {
			categories = []catalog.Category{}
		}
		return newCallResult(), MenuListResult{Categories: categories}, nil
	}
}

func localeTag(value string) language.Tag {
	if tag, ok := i18n.ParseTag(value); ok {
		return tag
	}
	return i18n.DefaultTag()
}

func newCallResult() *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Meta: map[string]any{RequestIDMetaKey: uuid.NewString()},
	}
}

// toolError renders coded errors with their localized message so store
// causes never reach the assistant.
func toolError(tag language.Tag, op string, err error) error {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		code = apperrors.CodeStoreError
	}
	message := errori18n.GetCatalog(i18n.Locale(tag)).Format(string(code), apperrors.MetadataOf(err))
	return fmt.Errorf("%s failed: [%s] %s", op, code, message)
}

func orderResults(tag language.Tag, orders []storage.Order) []OrderResult {
	out := make([]OrderResult, 0, len(orders))
	for _, o := range orders {
		items := make([]LineItemResult, 0, len(o.Items))
		for _, item := range o.Items {
			var options []string
			for _, opt := range item.SelectedOptions {
				options = append(options, opt.Name)
			}
			items = append(items, LineItemResult{
				MenuItemID: item.MenuItemID,
				Name:       item.Name,
				Price:      item.Price,
				Quantity:   item.Quantity,
				Options:    options,
			})
		}
		out = append(out, OrderResult{
			ID:          o.ID,
			TableNumber: o.TableNumber,
			Items:       items,
			TotalPrice:  o.TotalPrice,
			Status:      o.Status,
			StatusLabel: i18n.StatusLabel(tag, o.Status),
			CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
