package nl2sql

import (
	"strings"
	"testing"
)

func TestBuildPromptEmbedsSchemaRulesAndQuestion(t *testing.T) {
	prompt := BuildPrompt("  total invoices this year  ")

	for _, want := range []string{
		SchemaDescription,
		"1. Only generate SELECT queries",
		"7. Do not use semicolons at the end",
		"Question: total invoices this year\n",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if !strings.HasSuffix(prompt, "SQL Query:") {
		t.Fatalf("prompt suffix = %q", prompt[len(prompt)-20:])
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	if BuildPrompt("top vendors") != BuildPrompt("top vendors") {
		t.Fatal("BuildPrompt() is not deterministic")
	}
}
