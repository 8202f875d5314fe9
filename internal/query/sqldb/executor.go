package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/askdb/askdb/internal/apperr"
	"github.com/askdb/askdb/internal/query"
)

type Config struct {
	DSN            string
	Driver         string
	ConnectTimeout time.Duration
	// QueryTimeout bounds execution. Zero leaves the query unbounded.
	QueryTimeout time.Duration
	// Pooled keeps one *sql.DB for the executor lifetime instead of opening
	// and closing a handle per request.
	Pooled       bool
	MaxOpenConns int
	MaxIdleConns int
}

type OpenFunc func(driver, dsn string) (*sql.DB, error)

type Executor struct {
	cfg  Config
	open OpenFunc

	mu     sync.Mutex
	shared *sql.DB
}

func NewExecutor(cfg Config) *Executor {
	if cfg.Driver == "" {
		cfg.Driver = DriverPostgres
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	return &Executor{cfg: cfg, open: sql.Open}
}

func (e *Executor) Configured() bool {
	return e.cfg.DSN != ""
}

func (e *Executor) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	if !e.Configured() {
		return query.Result{}, apperr.Configuration("DATABASE_URL environment variable is not set")
	}
	if request.MaxRows < 0 {
		return query.Result{}, apperr.InvalidRequest("max_rows must not be negative")
	}

	start := time.Now()
	db, release, err := e.acquire()
	if err != nil {
		return query.Result{}, apperr.Connection(err)
	}
	defer release()

	connectCtx, cancel := context.WithTimeout(ctx, e.cfg.ConnectTimeout)
	conn, err := db.Conn(connectCtx)
	cancel()
	if err != nil {
		return query.Result{}, classifyConnectError(err, request.SQL)
	}
	defer func() { _ = conn.Close() }()

	queryCtx := ctx
	if e.cfg.QueryTimeout > 0 {
		var cancelQuery context.CancelFunc
		queryCtx, cancelQuery = context.WithTimeout(ctx, e.cfg.QueryTimeout)
		defer cancelQuery()
	}

	result, err := collect(queryCtx, conn, request)
	if err != nil {
		return query.Result{}, apperr.Database(err, request.SQL)
	}
	result.Duration = time.Since(start)
	return result, nil
}

// Close releases the shared handle of a pooled executor.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shared == nil {
		return nil
	}
	err := e.shared.Close()
	e.shared = nil
	return err
}

func (e *Executor) acquire() (*sql.DB, func(), error) {
	if !e.cfg.Pooled {
		db, err := e.openDB()
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(1)
		return db, func() { _ = db.Close() }, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shared == nil {
		db, err := e.openDB()
		if err != nil {
			return nil, nil, err
		}
		if e.cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(e.cfg.MaxOpenConns)
		}
		if e.cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(e.cfg.MaxIdleConns)
		}
		e.shared = db
	}
	return e.shared, func() {}, nil
}

func (e *Executor) openDB() (*sql.DB, error) {
	db, err := e.open(e.cfg.Driver, NormalizeDSN(e.cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", e.cfg.Driver, err)
	}
	return db, nil
}

func collect(ctx context.Context, conn *sql.Conn, request query.Request) (query.Result, error) {
	rows, err := conn.QueryContext(ctx, request.SQL)
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	total := 0
	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}
	for rows.Next() {
		total++
		if len(resultRows) >= request.MaxRows {
			continue
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	if total == 0 {
		columns = []string{}
	}
	return query.Result{
		Columns:   columns,
		Rows:      resultRows,
		TotalRows: total,
	}, nil
}

// classifyConnectError reports server-side rejections (authentication,
// unknown database) as database errors and everything else as connection
// errors.
func classifyConnectError(err error, sqlText string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return apperr.Database(pgErr, sqlText)
	}
	return apperr.Connection(err)
}

// Open returns a verified handle for tooling that writes to the target
// database. It applies the same DSN rewrite and connect timeout as Execute.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	e := NewExecutor(cfg)
	if !e.Configured() {
		return nil, errors.New("DATABASE_URL environment variable is not set")
	}
	db, err := e.openDB()
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, e.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", e.cfg.Driver, err)
	}
	return db, nil
}
