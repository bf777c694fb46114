package chart

import "strings"

// Shape summarizes the result properties the rules look at.
type Shape struct {
	CategoryColumn     string
	RowCount           int
	DistinctCategories int
}

type Rule struct {
	Name  string
	Type  Type
	Match func(Shape) bool
}

var timeKeywords = []string{"date", "time", "year", "month", "quarter", "period", "week", "day"}

const (
	lineMinRows          = 6
	pieMaxDistinctValues = 8
)

// DefaultRules orders time-like naming ahead of low cardinality. A fresh
// slice is returned so callers may insert rules without affecting others.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "time-line",
			Type: Line,
			Match: func(s Shape) bool {
				return IsTimeLike(s.CategoryColumn) && s.RowCount >= lineMinRows
			},
		},
		{
			Name: "time-area",
			Type: Area,
			Match: func(s Shape) bool {
				return IsTimeLike(s.CategoryColumn) && s.RowCount < lineMinRows
			},
		},
		{
			Name: "low-cardinality",
			Type: Pie,
			Match: func(s Shape) bool {
				return s.DistinctCategories <= pieMaxDistinctValues
			},
		},
		{
			Name:  "default",
			Type:  Bar,
			Match: func(Shape) bool { return true },
		},
	}
}

// IsTimeLike reports whether a column name contains a time keyword,
// ignoring case.
func IsTimeLike(column string) bool {
	lower := strings.ToLower(column)
	for _, keyword := range timeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
