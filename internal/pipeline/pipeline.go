// Package pipeline turns a natural-language question into query results:
// prompt, translate, gate, execute. Every failure leaves as an *apperr.Error
// and nothing is executed unless the safety gate accepts the statement.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/apperr"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/sqlguard"
)

const DefaultMaxRows = 200

type Request struct {
	Question string
	// MaxRows nil selects the service default.
	MaxRows *int
}

type Response struct {
	SQL       string           `json:"sql"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	TotalRows int              `json:"total_rows"`
}

type Config struct {
	Translator     nl2sql.Translator
	Executor       query.Executor
	Logger         *slog.Logger
	// DefaultMaxRows applies when a request omits max_rows. Zero selects
	// the package DefaultMaxRows.
	DefaultMaxRows int
}

type Service struct {
	translator     nl2sql.Translator
	executor       query.Executor
	logger         *slog.Logger
	defaultMaxRows int
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Translator == nil {
		return nil, fmt.Errorf("translator is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.DefaultMaxRows < 0 {
		return nil, fmt.Errorf("default max rows must not be negative")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	defaultMaxRows := cfg.DefaultMaxRows
	if defaultMaxRows == 0 {
		defaultMaxRows = DefaultMaxRows
	}
	return &Service{
		translator:     cfg.Translator,
		executor:       cfg.Executor,
		logger:         logger,
		defaultMaxRows: defaultMaxRows,
	}, nil
}

func (s *Service) Run(ctx context.Context, request Request) (Response, error) {
	response, err := s.run(ctx, request)
	if err != nil {
		classified := apperr.From(err)
		observability.IncrementPipelineError(string(classified.Code))
		s.logger.WarnContext(ctx, "nl_to_sql_failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("code", string(classified.Code)),
			slog.String("error", err.Error()),
		)
		return Response{}, classified
	}
	return response, nil
}

func (s *Service) run(ctx context.Context, request Request) (Response, error) {
	question := strings.TrimSpace(request.Question)
	if question == "" {
		return Response{}, apperr.InvalidRequest("query is required")
	}
	maxRows := s.defaultMaxRows
	if request.MaxRows != nil {
		maxRows = *request.MaxRows
	}
	if maxRows < 0 {
		return Response{}, apperr.InvalidRequest("max_rows must not be negative")
	}
	traceID := observability.TraceIDFromContext(ctx)

	prompt := nl2sql.BuildPrompt(question)

	translateStart := time.Now()
	translated, err := s.translator.Translate(ctx, prompt)
	if err != nil {
		observability.ObserveTranslation(translationOutcome(err), time.Since(translateStart))
		return Response{}, err
	}
	observability.ObserveTranslation("ok", time.Since(translateStart))
	s.logger.DebugContext(ctx, "sql_generated",
		slog.String("trace_id", traceID),
		slog.String("provider", translated.Provider),
		slog.String("model", translated.Model),
		slog.String("sql", translated.SQL),
	)

	if verdict := sqlguard.Evaluate(translated.SQL); !verdict.Accepted {
		observability.IncrementUnsafeQuery(verdict.Reason)
		s.logger.WarnContext(ctx, "sql_rejected",
			slog.String("trace_id", traceID),
			slog.String("reason", verdict.Reason),
			slog.String("keyword", verdict.Keyword),
			slog.String("sql", translated.SQL),
		)
		return Response{}, apperr.UnsafeQuery(verdict.Reason)
	}

	result, err := s.executor.Execute(ctx, query.Request{SQL: translated.SQL, MaxRows: maxRows})
	if err != nil {
		return Response{}, err
	}
	observability.ObserveQueryExecution(len(result.Rows), result.Duration)
	s.logger.InfoContext(ctx, "sql_executed",
		slog.String("trace_id", traceID),
		slog.Int("returned_rows", len(result.Rows)),
		slog.Int("total_rows", result.TotalRows),
		slog.String("duration", result.Duration.String()),
	)

	columns := result.Columns
	if columns == nil {
		columns = []string{}
	}
	rows := result.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	return Response{
		SQL:       translated.SQL,
		Columns:   columns,
		Rows:      rows,
		TotalRows: result.TotalRows,
	}, nil
}

func translationOutcome(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	var classified *apperr.Error
	if errors.As(err, &classified) {
		return strings.ToLower(string(classified.Code))
	}
	return "error"
}
