package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatusSplitsClientAndServerFailures(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{UnsafeQuery("Unsafe SQL operation detected"), http.StatusBadRequest},
		{InvalidRequest("query is required"), http.StatusBadRequest},
		{Configuration("DATABASE_URL environment variable is not set"), http.StatusInternalServerError},
		{GenerationService(401, "invalid key"), http.StatusInternalServerError},
		{GenerationFormat("bad", nil), http.StatusInternalServerError},
		{EmptyGeneration(), http.StatusInternalServerError},
		{Database(errors.New("syntax error"), "SELECT"), http.StatusInternalServerError},
		{Connection(errors.New("refused")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDatabaseDetailIncludesSQLOnlyWhenVerbose(t *testing.T) {
	err := Database(errors.New(`relation "Invoices" does not exist`), `SELECT * FROM "Invoices"`)

	verbose := err.Detail(true)
	if verbose != `Database error: relation "Invoices" does not exist. SQL: SELECT * FROM "Invoices"` {
		t.Fatalf("verbose detail = %q", verbose)
	}
	quiet := err.Detail(false)
	if strings.Contains(quiet, "SQL:") {
		t.Fatalf("quiet detail leaked sql: %q", quiet)
	}
}

func TestConnectionAndUnknownDetails(t *testing.T) {
	conn := Connection(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))
	if got := conn.Detail(true); !strings.HasPrefix(got, "Database connection error: dial tcp") || !strings.HasSuffix(got, "Please check DATABASE_URL.") {
		t.Fatalf("connection detail = %q", got)
	}
	unknown := From(errors.New("boom"))
	if unknown.Code != CodeUnknown {
		t.Fatalf("Code = %q", unknown.Code)
	}
	if got := unknown.Detail(false); got != "Error processing query: boom" {
		t.Fatalf("unknown detail = %q", got)
	}
}

func TestFromFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("execute stage: %w", UnsafeQuery("Only SELECT queries are allowed"))
	if !Is(wrapped, CodeUnsafeQuery) {
		t.Fatalf("CodeOf(wrapped) = %q", CodeOf(wrapped))
	}
	if From(wrapped).Message != "Only SELECT queries are allowed" {
		t.Fatalf("Message = %q", From(wrapped).Message)
	}
	if From(nil) != nil {
		t.Fatal("From(nil) should be nil")
	}
}

func TestGenerationServiceMessageCarriesStatus(t *testing.T) {
	err := GenerationService(429, "Rate limit reached")
	if !strings.Contains(err.Message, "status 429") || !strings.Contains(err.Message, "Rate limit reached") {
		t.Fatalf("Message = %q", err.Message)
	}
	if err.StatusCode != 429 {
		t.Fatalf("StatusCode = %d", err.StatusCode)
	}
}
