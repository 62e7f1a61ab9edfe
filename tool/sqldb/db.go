// Package sqldb wraps a database/sql handle for SQL agents: table listing,
// schema and sample rows, query execution rendered as text.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported dialects.
const (
	SQLite   = "sqlite"
	MySQL    = "mysql"
	Postgres = "postgresql"
)

// SampleRows is the number of rows shown after each table definition.
const SampleRows = 3

// Database is a SQL database inspected by agents.
type Database struct {
	db      *sql.DB
	dialect string
}

// Open connects with the driver registered for dialect.
func Open(dialect, dsn string) (*Database, error) {
	dialect, err := normalize(dialect)
	if err != nil {
		return nil, err
	}
	driver := map[string]string{SQLite: "sqlite3", MySQL: "mysql", Postgres: "pgx"}[dialect]
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// every new connection to :memory: is a fresh database
		db.SetMaxOpenConns(1)
	}
	return New(db, dialect)
}

// New wraps an existing handle.
func New(db *sql.DB, dialect string) (*Database, error) {
	dialect, err := normalize(dialect)
	if err != nil {
		return nil, err
	}
	return &Database{db: db, dialect: dialect}, nil
}

func normalize(dialect string) (string, error) {
	switch strings.ToLower(dialect) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported sql dialect %q", dialect)
}

func (d *Database) Dialect() string { return d.dialect }

func (d *Database) DB() *sql.DB { return d.db }

func (d *Database) Close() error { return d.db.Close() }

// TableNames lists the user tables in name order.
func (d *Database) TableNames(ctx context.Context) ([]string, error) {
	var q string
	switch d.dialect {
	case SQLite:
		q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case MySQL:
		q = `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name`
	default:
		q = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`
	}
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TableInfo returns the CREATE statement of each table followed by a
// comment block with sample rows.
func (d *Database) TableInfo(ctx context.Context, tables []string) (string, error) {
	known, err := d.TableNames(ctx)
	if err != nil {
		return "", err
	}
	var missing []string
	for _, t := range tables {
		if !slices.Contains(known, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("table_names %v not found in database", missing)
	}

	parts := make([]string, 0, len(tables))
	for _, t := range tables {
		ddl, err := d.createStatement(ctx, t)
		if err != nil {
			return "", err
		}
		sample, err := d.sampleRows(ctx, t)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s\n\n/*\n%s\n*/", strings.TrimSpace(ddl), sample))
	}
	return strings.Join(parts, "\n\n"), nil
}

func (d *Database) createStatement(ctx context.Context, table string) (string, error) {
	switch d.dialect {
	case SQLite:
		var ddl string
		err := d.db.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&ddl)
		return ddl, err
	case MySQL:
		var name, ddl string
		err := d.db.QueryRowContext(ctx, "SHOW CREATE TABLE "+d.quote(table)).Scan(&name, &ddl)
		return ddl, err
	}

	rows, err := d.db.QueryContext(ctx, `SELECT column_name, data_type, is_nullable FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position`, table)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var name, typ, nullable string
		if err := rows.Scan(&name, &typ, &nullable); err != nil {
			return "", err
		}
		col := "\t" + name + " " + strings.ToUpper(typ)
		if nullable == "NO" {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", table, strings.Join(cols, ",\n")), nil
}

func (d *Database) sampleRows(ctx context.Context, table string) (string, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", d.quote(table), SampleRows))
	if err != nil {
		return "", fmt.Errorf("sample rows of %s: %w", table, err)
	}
	defer rows.Close()
	cols, records, err := scanAll(rows)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d rows from %s table:\n%s", SampleRows, table, strings.Join(cols, "\t"))
	for _, rec := range records {
		cells := make([]string, len(rec))
		for i, v := range rec {
			cells[i] = plain(v)
		}
		sb.WriteString("\n" + strings.Join(cells, "\t"))
	}
	return sb.String(), nil
}

// Run executes query and renders the rows as a list of tuples, the way
// they would print in a Python shell. Statements without rows return "".
func (d *Database) Run(ctx context.Context, query string) (string, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	_, records, err := scanAll(rows)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	tuples := make([]string, len(records))
	for i, rec := range records {
		cells := make([]string, len(rec))
		for j, v := range rec {
			cells[j] = literal(v)
		}
		if len(cells) == 1 {
			tuples[i] = "(" + cells[0] + ",)"
		} else {
			tuples[i] = "(" + strings.Join(cells, ", ") + ")"
		}
	}
	return "[" + strings.Join(tuples, ", ") + "]", nil
}

// RunNoThrow is Run with the error folded into the output.
func (d *Database) RunNoThrow(ctx context.Context, query string) string {
	out, err := d.Run(ctx, query)
	if err != nil {
		return "Error: " + err.Error()
	}
	return out
}

func (d *Database) quote(ident string) string {
	if d.dialect == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func scanAll(rows *sql.Rows) ([]string, [][]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var records [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		records = append(records, vals)
	}
	return cols, records, rows.Err()
}

func plain(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.DateTime)
	}
	return fmt.Sprint(v)
}

func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return quoteString(x)
	case []byte:
		return quoteString(string(x))
	case time.Time:
		return quoteString(x.Format(time.DateTime))
	}
	return fmt.Sprint(v)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}
