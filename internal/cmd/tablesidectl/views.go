package tablesidectl

import (
	"time"

	"github.com/tableside/tableside/internal/platform/i18n"
	"github.com/tableside/tableside/internal/services/ordering/storage"
)

type orderView struct {
	ID          int64              `json:"id"`
	TableNumber int                `json:"tableNumber"`
	Items       []storage.LineItem `json:"items"`
	TotalPrice  float64            `json:"totalPrice"`
	Status      string             `json:"status"`
	StatusLabel string             `json:"statusLabel"`
	Timestamp   time.Time          `json:"timestamp"`
}

func orderViews(orders []storage.Order) []orderView {
	tag := i18n.DefaultTag()
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		items := o.Items
		if items == nil {
			items = []storage.LineItem{}
		}
		out = append(out, orderView{
			ID:          o.ID,
			TableNumber: o.TableNumber,
			Items:       items,
			TotalPrice:  o.TotalPrice,
			Status:      o.Status,
			StatusLabel: i18n.StatusLabel(tag, o.Status),
			Timestamp:   o.CreatedAt,
		})
	}
	return out
}
