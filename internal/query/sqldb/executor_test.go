package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/askdb/askdb/internal/apperr"
	"github.com/askdb/askdb/internal/query"
)

func TestExecuteTruncatesRowsButReportsTotal(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := newMockExecutor(db, Config{DSN: "postgres://u:p@host:5432/app"})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM "Vendor"`)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Acme").
			AddRow([]byte("Globex")).
			AddRow("Initech"))
	mock.ExpectClose()

	result, err := executor.Execute(context.Background(), query.Request{SQL: `SELECT name FROM "Vendor"`, MaxRows: 2})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.TotalRows != 3 {
		t.Fatalf("TotalRows = %d", result.TotalRows)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("len(Rows) = %d", len(result.Rows))
	}
	if result.Rows[1]["name"] != "Globex" {
		t.Fatalf("Rows[1] = %#v", result.Rows[1])
	}
	if len(result.Columns) != 1 || result.Columns[0] != "name" {
		t.Fatalf("Columns = %#v", result.Columns)
	}
	assertSQLMock(t, mock)
}

func TestExecuteWithZeroMaxRowsStillCounts(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := newMockExecutor(db, Config{DSN: "postgres://example"})

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectClose()

	result, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT id FROM t", MaxRows: 0})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 0 || result.TotalRows != 2 {
		t.Fatalf("rows = %d, total = %d", len(result.Rows), result.TotalRows)
	}
	assertSQLMock(t, mock)
}

func TestExecuteEmptyResultHasNoColumns(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := newMockExecutor(db, Config{DSN: "postgres://example"})

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectClose()

	result, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT id, name FROM t", MaxRows: 200})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Columns == nil || len(result.Columns) != 0 {
		t.Fatalf("Columns = %#v, want empty non-nil", result.Columns)
	}
	if result.Rows == nil || result.TotalRows != 0 {
		t.Fatalf("Rows = %#v, TotalRows = %d", result.Rows, result.TotalRows)
	}
	assertSQLMock(t, mock)
}

func TestExecuteQueryFailureIsDatabaseErrorAndReleasesConnection(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := newMockExecutor(db, Config{DSN: "postgres://example"})

	sqlText := `SELECT * FROM "Invoices"`
	mock.ExpectQuery(regexp.QuoteMeta(sqlText)).
		WillReturnError(&pgconn.PgError{Severity: "ERROR", Code: "42P01", Message: `relation "Invoices" does not exist`})
	mock.ExpectClose()

	_, err := executor.Execute(context.Background(), query.Request{SQL: sqlText, MaxRows: 10})
	if !apperr.Is(err, apperr.CodeDatabase) {
		t.Fatalf("error = %v, want database error", err)
	}
	classified := apperr.From(err)
	if classified.SQL != sqlText {
		t.Fatalf("SQL = %q", classified.SQL)
	}
	if !strings.Contains(classified.Message, `relation "Invoices" does not exist`) {
		t.Fatalf("Message = %q", classified.Message)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Fatal("expected wrapped PgError")
	}
	assertSQLMock(t, mock)
}

func TestExecuteRowErrorIsDatabaseError(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := newMockExecutor(db, Config{DSN: "postgres://example"})

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).RowError(0, errors.New("division by zero")))
	mock.ExpectClose()

	_, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT 1/0 AS id", MaxRows: 10})
	if !apperr.Is(err, apperr.CodeDatabase) {
		t.Fatalf("error = %v, want database error", err)
	}
	assertSQLMock(t, mock)
}

func TestExecuteRequiresDSN(t *testing.T) {
	opened := false
	executor := NewExecutor(Config{DSN: "  "})
	executor.open = func(string, string) (*sql.DB, error) {
		opened = true
		return nil, errors.New("unexpected open")
	}

	_, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT 1", MaxRows: 1})
	if !apperr.Is(err, apperr.CodeConfiguration) {
		t.Fatalf("error = %v, want configuration error", err)
	}
	if apperr.From(err).Message != "DATABASE_URL environment variable is not set" {
		t.Fatalf("Message = %q", apperr.From(err).Message)
	}
	if opened {
		t.Fatal("database opened without DSN")
	}
}

func TestExecuteRejectsNegativeMaxRows(t *testing.T) {
	executor := NewExecutor(Config{DSN: "postgres://example"})
	_, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT 1", MaxRows: -1})
	if !apperr.Is(err, apperr.CodeInvalidRequest) {
		t.Fatalf("error = %v, want invalid request", err)
	}
}

func TestExecuteOpenFailureIsConnectionError(t *testing.T) {
	var gotDriver, gotDSN string
	executor := NewExecutor(Config{DSN: "postgres://u:p@host/app"})
	executor.open = func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return nil, errors.New("unknown driver")
	}

	_, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT 1", MaxRows: 1})
	if !apperr.Is(err, apperr.CodeConnection) {
		t.Fatalf("error = %v, want connection error", err)
	}
	if gotDriver != DriverPostgres {
		t.Fatalf("driver = %q", gotDriver)
	}
	if gotDSN != "postgres://u:p@localhost/app" {
		t.Fatalf("dsn = %q", gotDSN)
	}
}

func TestExecuteUnreachablePostgresIsConnectionError(t *testing.T) {
	executor := NewExecutor(Config{
		DSN:            "postgres://u:p@host:1/app?sslmode=disable",
		ConnectTimeout: 2 * time.Second,
	})

	_, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT 1", MaxRows: 1})
	if !apperr.Is(err, apperr.CodeConnection) {
		t.Fatalf("error = %v, want connection error", err)
	}
}

func TestExecuteMalformedPostgresDSNIsConnectionError(t *testing.T) {
	executor := NewExecutor(Config{DSN: "postgres://u:p@[::1/app", ConnectTimeout: time.Second})

	_, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT 1", MaxRows: 1})
	if !apperr.Is(err, apperr.CodeConnection) {
		t.Fatalf("error = %v, want connection error", err)
	}
}

func TestClassifyConnectErrorSeparatesServerRejections(t *testing.T) {
	rejected := fmt.Errorf("failed to connect: %w", &pgconn.PgError{Severity: "FATAL", Code: "28P01", Message: "password authentication failed"})
	if err := classifyConnectError(rejected, "SELECT 1"); !apperr.Is(err, apperr.CodeDatabase) {
		t.Fatalf("error = %v, want database error", err)
	}
	if err := classifyConnectError(errors.New("dial tcp: connection refused"), "SELECT 1"); !apperr.Is(err, apperr.CodeConnection) {
		t.Fatalf("error = %v, want connection error", err)
	}
}

func TestPooledExecutorReusesHandle(t *testing.T) {
	db, mock := newSQLMock(t)
	opens := 0
	executor := NewExecutor(Config{DSN: "postgres://example", Pooled: true, MaxOpenConns: 4})
	executor.open = func(string, string) (*sql.DB, error) {
		opens++
		return db, nil
	}

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(int64(1)))

	for i := 0; i < 2; i++ {
		if _, err := executor.Execute(context.Background(), query.Request{SQL: "SELECT 1 AS c", MaxRows: 1}); err != nil {
			t.Fatalf("Execute() #%d error = %v", i, err)
		}
	}
	if opens != 1 {
		t.Fatalf("opens = %d, want 1", opens)
	}
	mock.ExpectClose()
	if err := executor.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestExecuteAgainstDuckDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.duckdb")
	seed, err := sql.Open(DriverDuckDB, path)
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE "Invoice" (id VARCHAR, "invoiceTotal" DOUBLE, "invoiceDate" DATE)`,
		`INSERT INTO "Invoice" VALUES ('a', 100.5, DATE '2026-01-10'), ('b', 20.0, DATE '2026-03-02'), ('c', 9.5, DATE '2025-12-30')`,
	} {
		if _, err := seed.Exec(stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
	if err := seed.Close(); err != nil {
		t.Fatalf("close seed db: %v", err)
	}

	executor := NewExecutor(Config{DSN: path, Driver: DriverDuckDB})

	total, err := executor.Execute(context.Background(), query.Request{
		SQL:     `SELECT SUM("invoiceTotal") AS total FROM "Invoice" WHERE "invoiceDate" >= DATE '2026-01-01'`,
		MaxRows: 200,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if total.TotalRows != 1 || len(total.Rows) != 1 || len(total.Columns) != 1 {
		t.Fatalf("result = %#v", total)
	}
	if total.Rows[0]["total"] != 120.5 {
		t.Fatalf("total = %#v", total.Rows[0]["total"])
	}

	limited, err := executor.Execute(context.Background(), query.Request{SQL: `SELECT id FROM "Invoice" ORDER BY id`, MaxRows: 2})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(limited.Rows) != 2 || limited.TotalRows != 3 {
		t.Fatalf("rows = %d, total = %d", len(limited.Rows), limited.TotalRows)
	}
	if limited.Rows[0]["id"] != "a" {
		t.Fatalf("first row = %#v", limited.Rows[0])
	}

	_, err = executor.Execute(context.Background(), query.Request{SQL: `SELECT * FROM "Invoices"`, MaxRows: 1})
	if !apperr.Is(err, apperr.CodeDatabase) {
		t.Fatalf("error = %v, want database error", err)
	}
}

func newMockExecutor(db *sql.DB, cfg Config) *Executor {
	executor := NewExecutor(cfg)
	executor.open = func(string, string) (*sql.DB, error) { return db, nil }
	return executor
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestOpenVerifiesDuckDBHandle(t *testing.T) {
	db, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "tool.duckdb"), Driver: DriverDuckDB})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	var one int
	if err := db.QueryRow("SELECT 1").Scan(&one); err != nil || one != 1 {
		t.Fatalf("SELECT 1 = %d, %v", one, err)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without DSN")
	}
}
