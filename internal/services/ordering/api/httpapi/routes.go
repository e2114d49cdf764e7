package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/order"
	"go.uber.org/zap"
)

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCatalog(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, catalogResponse{Categories: categories})
}

func (h *Handler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var (
		in     catalog.MenuItemInput
		staged *stagedImage
	)
	if isMultipart(r) {
		form, err := h.parseMultipart(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in, err = menuInputFromForm(form)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if strings.TrimSpace(in.ID) != "" {
			staged, err = h.stageImage(form, strings.TrimSpace(in.ID))
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			if staged != nil {
				in.Image = staged.name
			}
		}
	} else if err := h.decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.catalog.CreateMenuItem(r.Context(), in)
	if err != nil {
		staged.discard()
		h.writeError(w, r, err)
		return
	}
	h.commitImage(staged, id)
	h.writeJSON(w, r, http.StatusCreated, idResponse{ID: id})
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	var (
		in     catalog.MenuItemUpdate
		staged *stagedImage
	)
	if isMultipart(r) {
		form, err := h.parseMultipart(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in, err = menuUpdateFromForm(form)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		staged, err = h.stageImage(form, id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if staged != nil {
			name := staged.name
			in.Image = &name
		}
	} else if err := h.decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.catalog.UpdateMenuItem(r.Context(), id, in)
	if err != nil {
		staged.discard()
		h.writeError(w, r, err)
		return
	}
	h.commitImage(staged, updated)
	h.writeJSON(w, r, http.StatusOK, idResponse{ID: updated})
}

// commitImage moves a staged upload into place. The menu item already
// references the image, so a failure is logged rather than returned.
func (h *Handler) commitImage(staged *stagedImage, id string) {
	if err := staged.commit(); err != nil {
		h.logger.Error("commit menu image", zap.String("menu_item_id", id), zap.Error(err))
	}
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := h.catalog.DeleteMenuItem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, idResponse{ID: id})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.orders.CreateOrder(r.Context(), int(req.TableNumber), req.lineItems())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, newOrderResponse(requestLocale(r), created))
}

func (h *Handler) listTableOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForTable(r.Context(), queryInt(r, "tableNumber"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, newOrderResponses(requestLocale(r), orders))
}

func (h *Handler) searchOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.SearchOrders(r.Context(), order.SearchRequest{
		Filter:   r.URL.Query().Get("filter"),
		PageSize: queryInt(r, "pageSize"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, newOrderResponses(requestLocale(r), orders))
}

func (h *Handler) listKitchenOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForKitchen(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, newOrderResponses(requestLocale(r), orders))
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	// Unparseable ids cannot name an order; the service reports them as missing.
	id, _ := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	change, err := h.orders.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, statusResponse{
		ID:          change.ID,
		Status:      string(change.Status),
		StatusLabel: statusLabel(r, string(change.Status)),
	})
}

func (h *Handler) createStaffCall(w http.ResponseWriter, r *http.Request) {
	var req staffCallRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.orders.CreateStaffCall(r.Context(), int(req.TableNumber))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, orderIDResponse{ID: created.ID})
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.tables.ActiveTables(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, tables)
}
