package httpapi

import (
	"net/http"
	"time"

	apperrors "github.com/tableside/tableside/internal/platform/errors"
	errori18n "github.com/tableside/tableside/internal/platform/errors/i18n"
	"github.com/tableside/tableside/internal/platform/httpx"
	"github.com/tableside/tableside/internal/platform/i18n"
	"github.com/tableside/tableside/internal/platform/requestctx"
	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type idResponse struct {
	ID string `json:"id"`
}

type orderIDResponse struct {
	ID int64 `json:"id"`
}

type catalogResponse struct {
	Categories []catalog.Category `json:"categories"`
}

type statusResponse struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`
}

type orderResponse struct {
	ID          int64              `json:"id"`
	TableNumber int                `json:"tableNumber"`
	Items       []storage.LineItem `json:"items"`
	TotalPrice  float64            `json:"totalPrice"`
	Status      string             `json:"status"`
	StatusLabel string             `json:"statusLabel"`
	Timestamp   time.Time          `json:"timestamp"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func newOrderResponse(tag language.Tag, o storage.Order) orderResponse {
	items := o.Items
	if items == nil {
		items = []storage.LineItem{}
	}
	return orderResponse{
		ID:          o.ID,
		TableNumber: o.TableNumber,
		Items:       items,
		TotalPrice:  o.TotalPrice,
		Status:      o.Status,
		StatusLabel: i18n.StatusLabel(tag, o.Status),
		Timestamp:   o.CreatedAt,
	}
}

func newOrderResponses(tag language.Tag, orders []storage.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(tag, o))
	}
	return out
}

// requestLocale picks the response language from ?lang= first, then
// Accept-Language.
func requestLocale(r *http.Request) language.Tag {
	if tag, ok := i18n.ParseTag(r.URL.Query().Get("lang")); ok {
		return tag
	}
	return i18n.ResolveAcceptLanguage(r.Header.Get("Accept-Language"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		h.logger.Error("write response",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestctx.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", string(code)),
			zap.String("request_id", requestctx.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	tag := requestLocale(r)
	message := errori18n.GetCatalog(i18n.Locale(tag)).Format(string(code), apperrors.MetadataOf(err))
	h.writeJSON(w, r, status, errorResponse{Code: string(code), Error: message})
}

func statusLabel(r *http.Request, status string) string {
	return i18n.StatusLabel(requestLocale(r), status)
}
