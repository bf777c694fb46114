// Package chart derives a single chart series from the shape of a query result.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/querylens/querylens/internal/query"
)

type Type string

const (
	Bar  Type = "bar"
	Line Type = "line"
	Pie  Type = "pie"
	Area Type = "area"
)

type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type Series struct {
	Type           Type    `json:"type"`
	Data           []Point `json:"data"`
	CategoryColumn string  `json:"categoryColumn"`
	ValueColumn    string  `json:"valueColumn"`
	Rule           string  `json:"rule"`
}

// Selector evaluates its rules top to bottom; the first match decides the type.
type Selector struct {
	rules []Rule
}

var defaultSelector = NewSelector(DefaultRules())

func NewSelector(rules []Rule) *Selector {
	return &Selector{rules: rules}
}

// Select uses DefaultRules.
func Select(outcome query.Outcome) (Series, bool) {
	return defaultSelector.Select(outcome)
}

// Select returns false when the outcome failed, has no rows, or lacks either a
// category column or a value column.
func (s *Selector) Select(outcome query.Outcome) (Series, bool) {
	if !outcome.OK() || len(outcome.Success.Rows) == 0 {
		return Series{}, false
	}
	columns := outcome.Success.Columns
	rows := outcome.Success.Rows

	numeric := make(map[string]bool, len(columns))
	for _, column := range columns {
		for _, row := range rows {
			if isNumeric(row[column]) {
				numeric[column] = true
				break
			}
		}
	}

	categoryColumn, valueColumn := "", ""
	for _, column := range columns {
		if numeric[column] {
			if valueColumn == "" {
				valueColumn = column
			}
		} else if categoryColumn == "" {
			categoryColumn = column
		}
	}
	if categoryColumn == "" || valueColumn == "" {
		return Series{}, false
	}

	data := make([]Point, 0, len(rows))
	distinct := make(map[categoryKey]struct{}, len(rows))
	for _, row := range rows {
		cell := row[categoryColumn]
		name := CategoryName(cell)
		distinct[categoryKey{null: cell == nil, name: name}] = struct{}{}
		data = append(data, Point{Name: name, Value: numericValue(row[valueColumn])})
	}

	shape := Shape{
		CategoryColumn:     categoryColumn,
		RowCount:           len(rows),
		DistinctCategories: len(distinct),
	}
	chartType, ruleName := Bar, "default"
	for _, rule := range s.rules {
		if rule.Match(shape) {
			chartType, ruleName = rule.Type, rule.Name
			break
		}
	}

	return Series{
		Type:           chartType,
		Data:           data,
		CategoryColumn: categoryColumn,
		ValueColumn:    valueColumn,
		Rule:           ruleName,
	}, true
}

// categoryKey keeps a NULL cell apart from the string "null".
type categoryKey struct {
	null bool
	name string
}

// decimal is satisfied by driver decimal types such as duckdb.Decimal.
type decimal interface {
	Float64() float64
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number,
		*big.Int, *big.Float, decimal:
		return true
	default:
		return false
	}
}

// numericValue yields 0 for nil, non-numeric and non-finite values.
func numericValue(value any) float64 {
	f := rawNumericValue(value)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func rawNumericValue(value any) float64 {
	switch typed := value.(type) {
	case int:
		return float64(typed)
	case int8:
		return float64(typed)
	case int16:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint:
		return float64(typed)
	case uint8:
		return float64(typed)
	case uint16:
		return float64(typed)
	case uint32:
		return float64(typed)
	case uint64:
		return float64(typed)
	case float32:
		return float64(typed)
	case float64:
		return typed
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0
		}
		return parsed
	case *big.Int:
		if typed == nil {
			return 0
		}
		f, _ := new(big.Float).SetInt(typed).Float64()
		return f
	case *big.Float:
		if typed == nil {
			return 0
		}
		f, _ := typed.Float64()
		return f
	case decimal:
		return typed.Float64()
	default:
		return 0
	}
}

// CategoryName renders a category cell as the label shown on the chart axis.
func CategoryName(value any) string {
	switch typed := value.(type) {
	case nil:
		return "null"
	case string:
		return typed
	case []byte:
		return string(typed)
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 && typed.Nanosecond() == 0 {
			return typed.Format(time.DateOnly)
		}
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}
