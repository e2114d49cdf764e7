// Package catalog assembles and administers the menu catalog.
package catalog

import (
	"encoding/json"
	"strings"

	"github.com/tableside/tableside/internal/services/ordering/storage"
)

// Item is one menu entry as presented to clients.
type Item struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Price         float64              `json:"price"`
	Image         string               `json:"image"`
	Category      string               `json:"category"`
	Options       []storage.MenuOption `json:"options"`
	IsRecommended bool                 `json:"isRecommended"`
}

// Category groups the items sharing one category name.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// DecodeOptions decodes a stored option list. Blank input decodes to an
// empty list.
func DecodeOptions(raw string) ([]storage.MenuOption, error) {
	if strings.TrimSpace(raw) == "" {
		return []storage.MenuOption{}, nil
	}
	var options []storage.MenuOption
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, err
	}
	if options == nil {
		options = []storage.MenuOption{}
	}
	return options, nil
}

// EncodeOptions encodes an option list for storage.
func EncodeOptions(options []storage.MenuOption) (string, error) {
	if options == nil {
		options = []storage.MenuOption{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Assemble groups items by category in first-seen order. Items whose options
// fail to decode are presented with no options.
func Assemble(items []storage.MenuItem) []Category {
	return assemble(items, nil)
}

func assemble(items []storage.MenuItem, onDecodeError func(id string, err error)) []Category {
	categories := make([]Category, 0)
	index := make(map[string]int)
	for _, record := range items {
		options, err := DecodeOptions(record.Options)
		if err != nil {
			if onDecodeError != nil {
				onDecodeError(record.ID, err)
			}
			options = []storage.MenuOption{}
		}
		item := Item{
			ID:            record.ID,
			Name:          record.Name,
			Description:   record.Description,
			Price:         record.Price,
			Image:         record.Image,
			Category:      record.Category,
			Options:       options,
			IsRecommended: record.Recommended != 0,
		}
		pos, ok := index[record.Category]
		if !ok {
			pos = len(categories)
			index[record.Category] = pos
			categories = append(categories, Category{Name: record.Category, Items: []Item{}})
		}
		categories[pos].Items = append(categories[pos].Items, item)
	}
	return categories
}
