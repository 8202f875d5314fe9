package nl2sql

import "context"

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Translator turns a built prompt into a single cleaned SQL statement.
type Translator interface {
	Translate(ctx context.Context, prompt string) (Result, error)
}
