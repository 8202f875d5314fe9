package nl2sql

import (
	"fmt"
	"strings"
)

// SchemaDescription is the static database context handed to the model.
const SchemaDescription = `Database Schema (PostgreSQL with Prisma):

Main Tables:
1. Invoice: id, invoiceIdText, invoiceDate, deliveryDate, subtotal, totalTax, invoiceTotal, currency, documentType, vendorId, customerId
2. Vendor: id, name, partyNumber, address, taxId
3. Customer: id, name, address, taxId
4. InvoiceLineItem: id, invoiceId, description, quantity, unitPrice, totalPrice, vatRate, vatAmount
5. Payment: id, invoiceId, dueDate, paymentTerms, bankAccount

Important Notes:
- Table names are PascalCase (Invoice, not invoices)
- Use invoiceTotal for total amount
- Use invoiceDate for date filtering
- Join Invoice with Vendor using vendorId
- All IDs are UUIDs (strings)`

// SystemPrompt fixes the output format of every completion.
const SystemPrompt = "You are a SQL expert that converts natural language to PostgreSQL queries. " +
	"Return only the SQL query without any explanation or markdown formatting."

var generationRules = []string{
	"Only generate SELECT queries",
	`Table names are PascalCase: "Invoice", "Vendor", "Customer", etc.`,
	"Use double quotes for table/column names if needed",
	`For total spend: SUM("invoiceTotal")`,
	`For vendor info: JOIN "Invoice" with "Vendor" on "vendorId"`,
	"Return ONLY the SQL query, no explanations",
	"Do not use semicolons at the end",
	"Use proper PostgreSQL syntax",
}

func BuildPrompt(question string) string {
	var rules strings.Builder
	for i, rule := range generationRules {
		fmt.Fprintf(&rules, "%d. %s\n", i+1, rule)
	}
	return fmt.Sprintf(
		"You are a SQL expert. Convert the following natural language question into a PostgreSQL SELECT query.\n\n%s\n\nRules:\n%s\nQuestion: %s\n\nSQL Query:",
		SchemaDescription,
		rules.String(),
		strings.TrimSpace(question),
	)
}
