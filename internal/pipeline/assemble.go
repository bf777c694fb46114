package pipeline

import (
	"github.com/querylens/querylens/internal/chart"
	"github.com/querylens/querylens/internal/nl2sql"
	"github.com/querylens/querylens/internal/query"
)

type QueryResult struct {
	Columns   []string    `json:"columns"`
	Rows      []query.Row `json:"rows"`
	SQL       string      `json:"sql"`
	Truncated bool        `json:"truncated,omitempty"`
}

// Response is the payload returned for one answered question.
type Response struct {
	Answer            string         `json:"answer"`
	QueryResults      []QueryResult  `json:"queryResults"`
	VisualizationType string         `json:"visualizationType"`
	Confidence        int            `json:"confidence"`
	Charts            []chart.Series `json:"charts"`
	AnswerID          string         `json:"answerId,omitempty"`
}

// Assemble packages the generation result, the execution outcome and the
// optional chart. A failed outcome yields no query results and no chart, but
// the explanation is still returned as the answer.
func Assemble(result nl2sql.Result, outcome query.Outcome, series *chart.Series) Response {
	response := Response{
		Answer:            result.Explanation,
		QueryResults:      []QueryResult{},
		VisualizationType: result.Visualization,
		Confidence:        result.Confidence,
		Charts:            []chart.Series{},
	}
	if !outcome.OK() {
		return response
	}

	columns := outcome.Success.Columns
	if columns == nil {
		columns = []string{}
	}
	rows := outcome.Success.Rows
	if rows == nil {
		rows = []query.Row{}
	}
	response.QueryResults = append(response.QueryResults, QueryResult{
		Columns:   columns,
		Rows:      rows,
		SQL:       result.SQL,
		Truncated: outcome.Success.Truncated,
	})
	if series != nil {
		response.Charts = append(response.Charts, *series)
	}
	return response
}
