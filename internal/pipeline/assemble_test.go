package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/querylens/querylens/internal/chart"
	"github.com/querylens/querylens/internal/nl2sql"
	"github.com/querylens/querylens/internal/query"
)

func TestAssembleSuccess(t *testing.T) {
	result := nl2sql.Result{SQL: "SELECT region, sales FROM t", Explanation: "Sales by region", Visualization: "bar", Confidence: 80}
	outcome := query.Succeeded(result.SQL, query.Success{
		Columns: []string{"region", "sales"},
		Rows:    []query.Row{{"region": "North", "sales": 1.5}},
	})
	series := chart.Series{Type: chart.Pie, Data: []chart.Point{{Name: "North", Value: 1.5}}, CategoryColumn: "region", ValueColumn: "sales", Rule: "low-cardinality"}

	got := Assemble(result, outcome, &series)
	want := Response{
		Answer: "Sales by region",
		QueryResults: []QueryResult{{
			Columns: []string{"region", "sales"},
			Rows:    []query.Row{{"region": "North", "sales": 1.5}},
			SQL:     "SELECT region, sales FROM t",
		}},
		VisualizationType: "bar",
		Confidence:        80,
		Charts:            []chart.Series{series},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Assemble() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleFailureKeepsExplanation(t *testing.T) {
	result := nl2sql.Result{SQL: "SELECT * FROM margins", Explanation: "Looking for margins", Visualization: "pie", Confidence: 40}
	outcome := query.Failed(result.SQL, query.FailurePermission, "denied")

	got := Assemble(result, outcome, nil)
	if got.Answer != "Looking for margins" {
		t.Fatalf("Answer = %q", got.Answer)
	}
	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	const want = `{"answer":"Looking for margins","queryResults":[],"visualizationType":"pie","confidence":40,"charts":[]}`
	if string(encoded) != want {
		t.Fatalf("payload = %s, want %s", encoded, want)
	}
}

func TestAssembleZeroRowsKeepsColumns(t *testing.T) {
	result := nl2sql.Result{SQL: "SELECT cty FROM t WHERE 1=0", Explanation: "none", Visualization: "bar"}
	outcome := query.Succeeded(result.SQL, query.Success{Columns: []string{"cty"}})

	got := Assemble(result, outcome, nil)
	if len(got.QueryResults) != 1 {
		t.Fatalf("len(QueryResults) = %d", len(got.QueryResults))
	}
	encoded, err := json.Marshal(got.QueryResults[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `{"columns":["cty"],"rows":[],"sql":"SELECT cty FROM t WHERE 1=0"}` {
		t.Fatalf("query result = %s", encoded)
	}
}
