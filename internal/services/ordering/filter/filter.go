// Package filter translates AIP-160 order history filters into SQL.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/tableside/tableside/internal/services/ordering/storage"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// OrderDeclarations returns the field declarations for order history filtering.
func OrderDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("table_number", filtering.TypeInt),
		filtering.DeclareIdent("status", filtering.TypeString),
		filtering.DeclareIdent("total_price", filtering.TypeFloat),
		filtering.DeclareIdent("created_at", filtering.TypeTimestamp),
	)
}

// fieldMapping maps filter field names to SQL column names.
var fieldMapping = map[string]string{
	"table_number": "table_number",
	"status":       "status",
	"total_price":  "total_price",
	"created_at":   "created_at",
}

// StatusNormalizer maps a status literal to its stored code.
type StatusNormalizer func(value string) (string, bool)

type translator struct {
	normalizeStatus StatusNormalizer
}

// ParseOrderFilter parses an AIP-160 filter expression into a SQL condition.
// An empty filter returns a nil condition. Status literals pass through
// normalizeStatus when it is non-nil.
func ParseOrderFilter(filterStr string, normalizeStatus StatusNormalizer) (*storage.Condition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return nil, nil
	}

	decls, err := OrderDeclarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}

	tr := translator{normalizeStatus: normalizeStatus}
	condition, err := tr.translateExpr(filter.CheckedExpr.GetExpr())
	if err != nil {
		return nil, err
	}
	return &condition, nil
}

func (tr translator) translateExpr(e *expr.Expr) (storage.Condition, error) {
	if e == nil {
		return storage.Condition{}, fmt.Errorf("empty filter expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return tr.translateCall(kind.CallExpr)
	default:
		return storage.Condition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func (tr translator) translateCall(call *expr.Expr_Call) (storage.Condition, error) {
	switch call.Function {
	case filtering.FunctionAnd:
		return tr.translateJunction(call.Args, "AND")
	case filtering.FunctionOr:
		return tr.translateJunction(call.Args, "OR")
	case filtering.FunctionNot:
		return tr.translateNot(call.Args)
	case filtering.FunctionEquals:
		return tr.translateComparison(call.Args, "=")
	case filtering.FunctionNotEquals:
		return tr.translateComparison(call.Args, "!=")
	case filtering.FunctionLessThan:
		return tr.translateComparison(call.Args, "<")
	case filtering.FunctionLessEquals:
		return tr.translateComparison(call.Args, "<=")
	case filtering.FunctionGreaterThan:
		return tr.translateComparison(call.Args, ">")
	case filtering.FunctionGreaterEquals:
		return tr.translateComparison(call.Args, ">=")
	default:
		return storage.Condition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func (tr translator) translateJunction(args []*expr.Expr, op string) (storage.Condition, error) {
	if len(args) < 2 {
		return storage.Condition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}

	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		part, err := tr.translateExpr(arg)
		if err != nil {
			return storage.Condition{}, err
		}
		clauses = append(clauses, part.Clause)
		params = append(params, part.Params...)
	}
	return storage.Condition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func (tr translator) translateNot(args []*expr.Expr) (storage.Condition, error) {
	if len(args) != 1 {
		return storage.Condition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := tr.translateExpr(args[0])
	if err != nil {
		return storage.Condition{}, err
	}
	return storage.Condition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
}

func (tr translator) translateComparison(args []*expr.Expr, op string) (storage.Condition, error) {
	if len(args) != 2 {
		return storage.Condition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return storage.Condition{}, err
	}

	column, ok := fieldMapping[field]
	if !ok {
		return storage.Condition{}, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return storage.Condition{}, err
	}

	switch field {
	case "created_at":
		if text, ok := value.(string); ok {
			value, err = parseTimestampMillis(text)
			if err != nil {
				return storage.Condition{}, err
			}
		}
	case "status":
		text, ok := value.(string)
		if !ok {
			return storage.Condition{}, fmt.Errorf("status must be compared with a string")
		}
		if tr.normalizeStatus != nil {
			code, known := tr.normalizeStatus(text)
			if !known {
				return storage.Condition{}, fmt.Errorf("unknown status: %s", text)
			}
			value = code
		}
	}

	return storage.Condition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == filtering.FunctionTimestamp && len(kind.CallExpr.Args) == 1 {
			return extractTimestampMillis(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

// extractTimestampMillis returns the Unix millisecond value stored in created_at.
func extractTimestampMillis(e *expr.Expr) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("nil timestamp argument")
	}

	kind, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	strVal, ok := kind.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	return parseTimestampMillis(strVal.StringValue)
}

func parseTimestampMillis(value string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", value)
	}
	return t.UTC().UnixMilli(), nil
}
