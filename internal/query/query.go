package query

import (
	"context"
	"time"
)

type Request struct {
	SQL     string
	MaxRows int
}

// Result holds at most MaxRows rows; TotalRows is the full cardinality of
// the result set.
type Result struct {
	Columns   []string
	Rows      []map[string]any
	TotalRows int
	Duration  time.Duration
}

type Executor interface {
	Execute(ctx context.Context, request Request) (Result, error)
}
