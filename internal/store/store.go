// Package store exports pipeline artifacts into a single SQLite file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/features"
	"github.com/paveg/reviewrisk/internal/series"
	_ "modernc.org/sqlite"
)

// Store is an open SQLite export target.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path, creating its directory.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

func sqlType(dt arrow.DataType) string {
	switch dt.ID() {
	case arrow.INT64, arrow.BOOL:
		return "INTEGER"
	case arrow.FLOAT64:
		return "REAL"
	default:
		return "TEXT"
	}
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// WriteTable replaces table name with the rows of df in one transaction.
// Nulls become SQL NULL; booleans become 0/1; timestamps are stored as text.
func (s *Store) WriteTable(ctx context.Context, name string, df *dataframe.DataFrame) (err error) {
	cols := df.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("write %s: table has no columns", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback %s: %w", name, rbErr))
		}
	}()

	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	columns := make([]dataframe.ISeries, len(cols))
	for i, c := range cols {
		columns[i], _ = df.Column(c)
		quoted[i] = quote(c)
		defs[i] = quoted[i] + " " + sqlType(columns[i].DataType())
	}
	if _, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quote(name)); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx, `CREATE TABLE `+quote(name)+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quote(name)+` (`+strings.Join(quoted, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for row := 0; row < df.Len(); row++ {
		for i, col := range columns {
			args[i] = cellValue(col, row)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s row %d: %w", name, row, err)
		}
	}
	return tx.Commit()
}

func cellValue(s dataframe.ISeries, row int) any {
	if s.IsNull(row) {
		return nil
	}
	switch typed := s.(type) {
	case *series.Series[int64]:
		return typed.Value(row)
	case *series.Series[float64]:
		return typed.Value(row)
	case *series.Series[bool]:
		if typed.Value(row) {
			return 1
		}
		return 0
	}
	return s.GetAsString(row)
}

// WriteRiskMap stores a risk map as (value, rate, row_count) plus a row for the
// global mean under a NULL value.
func (s *Store) WriteRiskMap(ctx context.Context, name string, m *features.RiskMap) error {
	keys := make([]string, 0, len(m.Rates))
	for k := range m.Rates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys)+1)
	valid := make([]bool, 0, len(keys)+1)
	rates := make([]float64, 0, len(keys)+1)
	counts := make([]int64, 0, len(keys)+1)
	var total int64
	for _, k := range keys {
		values = append(values, k)
		valid = append(valid, true)
		rates = append(rates, m.Rates[k])
		counts = append(counts, m.Counts[k])
		total += m.Counts[k]
	}
	values = append(values, "")
	valid = append(valid, false)
	rates = append(rates, m.GlobalMean)
	counts = append(counts, total)

	df := dataframe.New(
		series.NewNullable(m.Column, values, valid, nil),
		series.New("rate", rates, nil),
		series.New("row_count", counts, nil),
	)
	defer df.Release()
	return s.WriteTable(ctx, name, df)
}

// Tables lists the tables in the database.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Count returns the row count of a table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quote(table)).Scan(&n)
	return n, err
}
