package order

import "strings"

// Status is an order lifecycle state, stored as its code.
type Status string

const (
	StatusReceived    Status = "RECEIVED"
	StatusPreparing   Status = "PREPARING"
	StatusReady       Status = "READY"
	StatusServed      Status = "SERVED"
	StatusSettled     Status = "SETTLED"
	StatusCancelled   Status = "CANCELLED"
	StatusCalled      Status = "CALLED"
	StatusKitchenDone Status = "KITCHEN_DONE"
)

var allowedStatuses = []Status{
	StatusReceived,
	StatusPreparing,
	StatusReady,
	StatusServed,
	StatusSettled,
	StatusCancelled,
	StatusCalled,
	StatusKitchenDone,
}

var kitchenStatuses = []Status{
	StatusReceived,
	StatusPreparing,
	StatusReady,
	StatusServed,
	StatusCalled,
}

// legacyLabels maps the display labels older tablets send to status codes.
var legacyLabels = map[string]Status{
	"注文受付":  StatusReceived,
	"調理中":   StatusPreparing,
	"調理完了":  StatusReady,
	"提供済み":  StatusServed,
	"会計済み":  StatusSettled,
	"キャンセル": StatusCancelled,
	"呼び出し":  StatusCalled,
	"KDS完了": StatusKitchenDone,
}

// AllowedStatuses returns every status an order may be set to.
func AllowedStatuses() []Status {
	return append([]Status(nil), allowedStatuses...)
}

// KitchenStatuses returns the statuses shown on the kitchen display.
func KitchenStatuses() []Status {
	return append([]Status(nil), kitchenStatuses...)
}

// NormalizeStatus resolves a status code (any case) or legacy label.
func NormalizeStatus(value string) (Status, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	if status, ok := legacyLabels[trimmed]; ok {
		return status, true
	}
	candidate := Status(strings.ToUpper(trimmed))
	for _, status := range allowedStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}
