package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/querylens/querylens/internal/query"
)

// Cell is one value of a result set in long format. Result columns vary per
// question, so values are stored as text with their original kind.
type Cell struct {
	RowIndex int64  `parquet:"row_index"`
	Column   string `parquet:"column"`
	Value    string `parquet:"value"`
	IsNull   bool   `parquet:"is_null"`
	Kind     string `parquet:"kind"`
}

const (
	KindNull   = "null"
	KindInt    = "int"
	KindFloat  = "float"
	KindBool   = "bool"
	KindTime   = "time"
	KindString = "string"
	KindJSON   = "json"
)

func EncodeCells(success query.Success) ([]byte, error) {
	cells := make([]Cell, 0, len(success.Rows)*len(success.Columns))
	for i, row := range success.Rows {
		for _, column := range success.Columns {
			cell, err := newCell(int64(i), column, row[column])
			if err != nil {
				return nil, err
			}
			cells = append(cells, cell)
		}
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[Cell](buf)
	if len(cells) > 0 {
		if _, err := writer.Write(cells); err != nil {
			return nil, fmt.Errorf("write parquet cells: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func newCell(rowIndex int64, column string, value any) (Cell, error) {
	cell := Cell{RowIndex: rowIndex, Column: column}
	switch typed := value.(type) {
	case nil:
		cell.IsNull = true
		cell.Kind = KindNull
	case string:
		cell.Value, cell.Kind = typed, KindString
	case bool:
		cell.Value, cell.Kind = strconv.FormatBool(typed), KindBool
	case int64:
		cell.Value, cell.Kind = strconv.FormatInt(typed, 10), KindInt
	case int32:
		cell.Value, cell.Kind = strconv.FormatInt(int64(typed), 10), KindInt
	case int:
		cell.Value, cell.Kind = strconv.Itoa(typed), KindInt
	case uint64:
		cell.Value, cell.Kind = strconv.FormatUint(typed, 10), KindInt
	case float64:
		cell.Value, cell.Kind = strconv.FormatFloat(typed, 'f', -1, 64), KindFloat
	case float32:
		cell.Value, cell.Kind = strconv.FormatFloat(float64(typed), 'f', -1, 32), KindFloat
	case time.Time:
		cell.Value, cell.Kind = typed.UTC().Format(time.RFC3339Nano), KindTime
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return Cell{}, fmt.Errorf("encode cell %s[%d]: %w", column, rowIndex, err)
		}
		cell.Value, cell.Kind = string(encoded), KindJSON
	}
	return cell, nil
}
