package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/tableside/tableside/internal/platform/errors"
	"github.com/tableside/tableside/internal/services/ordering/storage"
)

// tableNumber accepts a JSON number or a numeric string.
type tableNumber int

func (n *tableNumber) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*n = 0
		return nil
	}
	text = strings.TrimSpace(strings.Trim(text, `"`))
	if text == "" {
		*n = 0
		return nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value != math.Trunc(value) || math.Abs(value) > math.MaxInt32 {
		return fmt.Errorf("table number %s is not an integer", text)
	}
	*n = tableNumber(value)
	return nil
}

type lineItemRequest struct {
	MenuItemID      string               `json:"menuItemId"`
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Price           float64              `json:"price"`
	Quantity        int                  `json:"quantity"`
	SelectedOptions []storage.MenuOption `json:"selectedOptions"`
}

type createOrderRequest struct {
	TableNumber tableNumber       `json:"tableNumber"`
	Items       []lineItemRequest `json:"items"`
}

func (r createOrderRequest) lineItems() []storage.LineItem {
	items := make([]storage.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		menuItemID := item.MenuItemID
		if menuItemID == "" {
			menuItemID = item.ID
		}
		items = append(items, storage.LineItem{
			MenuItemID:      menuItemID,
			Name:            item.Name,
			Price:           item.Price,
			Quantity:        item.Quantity,
			SelectedOptions: item.SelectedOptions,
		})
	}
	return items
}

type staffCallRequest struct {
	TableNumber tableNumber `json:"tableNumber"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return invalidBody("request body is required")
		}
		return invalidBody(err.Error())
	}
	return nil
}

func invalidBody(message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, map[string]string{"Field": "body"})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return value
}
