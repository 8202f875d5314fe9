// Package sqlguard is the coarse lexical gate in front of query execution.
//
// It is not a parser: keywords are matched as substrings, so a column named
// update_count is rejected and a mutating statement hidden behind an
// alternate keyword is not.
package sqlguard

import (
	"strings"

	"github.com/askdb/askdb/internal/apperr"
)

const (
	ReasonUnsafeOperation = "Unsafe SQL operation detected"
	ReasonNotSelect       = "Only SELECT queries are allowed"
)

var mutatingKeywords = []string{"drop", "delete", "update", "insert"}

type Verdict struct {
	Accepted bool
	Reason   string
	Keyword  string
}

func Evaluate(sqlText string) Verdict {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	for _, keyword := range mutatingKeywords {
		if strings.Contains(normalized, keyword) {
			return Verdict{Reason: ReasonUnsafeOperation, Keyword: keyword}
		}
	}
	if !strings.HasPrefix(normalized, "select") {
		return Verdict{Reason: ReasonNotSelect}
	}
	return Verdict{Accepted: true}
}

// Check returns an apperr.CodeUnsafeQuery error when sqlText is rejected.
func Check(sqlText string) error {
	verdict := Evaluate(sqlText)
	if verdict.Accepted {
		return nil
	}
	return apperr.UnsafeQuery(verdict.Reason)
}
