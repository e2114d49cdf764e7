// Package httpapi exposes the ordering services as a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/tableside/tableside/internal/platform/httpx"
	"github.com/tableside/tableside/internal/platform/logging"
	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/order"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"go.uber.org/zap"
)

const (
	defaultMaxBodyBytes   int64 = 1 << 20
	defaultMaxUploadBytes int64 = 10 << 20
)

// CatalogService is the catalog surface used by the API.
type CatalogService interface {
	ListCatalog(ctx context.Context) ([]catalog.Category, error)
	CreateMenuItem(ctx context.Context, in catalog.MenuItemInput) (string, error)
	UpdateMenuItem(ctx context.Context, id string, in catalog.MenuItemUpdate) (string, error)
	DeleteMenuItem(ctx context.Context, id string) (string, error)
}

// OrderService is the order lifecycle surface used by the API.
type OrderService interface {
	CreateOrder(ctx context.Context, tableNumber int, items []storage.LineItem) (storage.Order, error)
	CreateStaffCall(ctx context.Context, tableNumber int) (storage.Order, error)
	SetStatus(ctx context.Context, id int64, status string) (order.StatusChange, error)
	ListForTable(ctx context.Context, tableNumber int) ([]storage.Order, error)
	ListForKitchen(ctx context.Context) ([]storage.Order, error)
	SearchOrders(ctx context.Context, req order.SearchRequest) ([]storage.Order, error)
}

// TableTracker reports occupied tables.
type TableTracker interface {
	ActiveTables(ctx context.Context) ([]int, error)
}

// Options configures a Handler.
type Options struct {
	Catalog CatalogService
	Orders  OrderService
	Tables  TableTracker
	// AssetsDir is served under /assets/, /images/ and /static/ and receives
	// uploaded menu images. Empty disables both.
	AssetsDir      string
	Logger         *zap.Logger
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

// Handler serves the ordering JSON API.
type Handler struct {
	catalog        CatalogService
	orders         OrderService
	tables         TableTracker
	assetsDir      string
	logger         *zap.Logger
	maxBodyBytes   int64
	maxUploadBytes int64
}

// New creates an API handler.
func New(opts Options) *Handler {
	h := &Handler{
		catalog:        opts.Catalog,
		orders:         opts.Orders,
		tables:         opts.Tables,
		assetsDir:      strings.TrimSpace(opts.AssetsDir),
		logger:         logging.OrNop(opts.Logger),
		maxBodyBytes:   opts.MaxBodyBytes,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = defaultMaxBodyBytes
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = defaultMaxUploadBytes
	}
	return h
}

// Routes returns the API mux wrapped in the standard middleware chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/menu", h.listMenu)
	mux.HandleFunc("POST /api/menu", h.createMenuItem)
	mux.HandleFunc("PUT /api/menu/{id}", h.updateMenuItem)
	mux.HandleFunc("DELETE /api/menu/{id}", h.deleteMenuItem)

	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listTableOrders)
	mux.HandleFunc("GET /api/orders/history", h.searchOrders)
	mux.HandleFunc("GET /api/kitchen/orders", h.listKitchenOrders)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.setOrderStatus)
	mux.HandleFunc("POST /api/call", h.createStaffCall)
	mux.HandleFunc("GET /api/tables", h.listTables)

	if h.assetsDir != "" {
		files := http.FileServer(http.Dir(h.assetsDir))
		for _, prefix := range []string{"/assets/", "/images/", "/static/"} {
			mux.Handle("GET "+prefix, http.StripPrefix(prefix, files))
		}
	}

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.AccessLog(h.logger),
		httpx.RecoverPanic(h.logger),
		httpx.CORS("/api/"),
	)
}
