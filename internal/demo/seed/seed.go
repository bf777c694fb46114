// Package seed fills a database with a deterministic, deliberately messy
// retail dataset for trying out questions.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/querylens/querylens/internal/database"
	"github.com/querylens/querylens/internal/observability"
)

type table struct {
	name    string
	ddl     string
	columns []string
}

// Column types stay within what MySQL, PostgreSQL, SQLite and DuckDB all accept.
var tables = []table{
	{
		name:    "stores",
		ddl:     "CREATE TABLE stores (str_id INTEGER PRIMARY KEY, str_nm VARCHAR(32) NOT NULL, cty VARCHAR(64), rgn VARCHAR(16), brnch_no INTEGER, opnd DATE)",
		columns: []string{"str_id", "str_nm", "cty", "rgn", "brnch_no", "opnd"},
	},
	{
		name:    "prd",
		ddl:     "CREATE TABLE prd (prd_id INTEGER PRIMARY KEY, prd_nm VARCHAR(64) NOT NULL, cat VARCHAR(32), cst VARCHAR(32), lst_prc DECIMAL(10,2))",
		columns: []string{"prd_id", "prd_nm", "cat", "cst", "lst_prc"},
	},
	{
		name:    "cust",
		ddl:     "CREATE TABLE cust (cust_id INTEGER PRIMARY KEY, nm VARCHAR(64), eml VARCHAR(128), sgmnt VARCHAR(16), jnd DATE)",
		columns: []string{"cust_id", "nm", "eml", "sgmnt", "jnd"},
	},
	{
		name:    "sls_txn",
		ddl:     "CREATE TABLE sls_txn (txn_id INTEGER PRIMARY KEY, str_id INTEGER, prd_id INTEGER, cust_id INTEGER, qty INTEGER, amt VARCHAR(32), txn_dt DATE, txn_hr INTEGER, pmt VARCHAR(16))",
		columns: []string{"txn_id", "str_id", "prd_id", "cust_id", "qty", "amt", "txn_dt", "txn_hr", "pmt"},
	},
	{
		name:    "rtns",
		ddl:     "CREATE TABLE rtns (rtn_id INTEGER PRIMARY KEY, txn_id INTEGER, rtn_dt DATE, rsn VARCHAR(64), rfnd_amt DECIMAL(10,2))",
		columns: []string{"rtn_id", "txn_id", "rtn_dt", "rsn", "rfnd_amt"},
	},
}

// Summary maps table name to inserted rows.
type Summary map[string]int

type Seeder struct {
	db     *sql.DB
	driver string
	cfg    Config
	logger *slog.Logger
}

func NewSeeder(db *sql.DB, driver string, cfg Config, logger *slog.Logger) (*Seeder, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if _, err := database.SQLDriverName(driver); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Seeder{db: db, driver: driver, cfg: cfg, logger: logger}, nil
}

func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	ds := NewGenerator(s.cfg).Generate()

	if s.cfg.Reset {
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+tables[i].name); err != nil {
				return nil, fmt.Errorf("drop table %s: %w", tables[i].name, err)
			}
		}
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, t.ddl); err != nil {
			return nil, fmt.Errorf("create table %s: %w", t.name, err)
		}
	}

	rowsByTable := map[string][][]any{
		"stores":  storeRows(ds.Stores),
		"prd":     productRows(ds.Products),
		"cust":    customerRows(ds.Customers),
		"sls_txn": saleRows(ds.Sales),
		"rtns":    returnRows(ds.Returns),
	}

	summary := Summary{}
	for _, t := range tables {
		rows := rowsByTable[t.name]
		if err := s.insert(ctx, t, rows); err != nil {
			return nil, err
		}
		summary[t.name] = len(rows)
		s.logger.InfoContext(ctx, "seed_table_loaded",
			slog.String("table", t.name),
			slog.Int("rows", len(rows)),
		)
	}
	return summary, nil
}

func (s *Seeder) insert(ctx context.Context, t table, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s insert: %w", t.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(rows); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(rows))
		batch := rows[start:end]
		statement, args := buildInsert(s.driver, t, batch)
		if _, err := tx.ExecContext(ctx, statement, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s insert: %w", t.name, err)
	}
	return nil
}

// buildInsert renders a multi-row INSERT with the placeholder style of driver.
func buildInsert(driver string, t table, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.name)
	b.WriteString(" (")
	b.WriteString(strings.Join(t.columns, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(t.columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, value := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, value)
			if driver == database.DriverPostgres {
				b.WriteString("$" + strconv.Itoa(len(args)))
			} else {
				b.WriteByte('?')
			}
		}
		b.WriteByte(')')
	}
	return b.String(), args
}

func storeRows(stores []Store) [][]any {
	rows := make([][]any, 0, len(stores))
	for _, st := range stores {
		rows = append(rows, []any{st.ID, st.Name, nullable(st.City), st.Region, st.BranchNo, st.Opened})
	}
	return rows
}

func productRows(products []Product) [][]any {
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{p.ID, p.Name, p.Category, p.Cost, p.ListPrc})
	}
	return rows
}

func customerRows(customers []Customer) [][]any {
	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []any{c.ID, c.Name, nullable(c.Email), c.Segment, c.Joined})
	}
	return rows
}

func saleRows(sales []Sale) [][]any {
	rows := make([][]any, 0, len(sales))
	for _, s := range sales {
		var customerID any
		if s.CustomerID != nil {
			customerID = *s.CustomerID
		}
		rows = append(rows, []any{s.ID, s.StoreID, s.ProductID, customerID, s.Qty, s.Amount, s.Date, s.Hour, s.Payment})
	}
	return rows
}

func returnRows(returns []Return) [][]any {
	rows := make([][]any, 0, len(returns))
	for _, r := range returns {
		rows = append(rows, []any{r.ID, r.SaleID, r.Date, nullable(r.Reason), r.Refund})
	}
	return rows
}

func nullable(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
