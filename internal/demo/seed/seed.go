// Package seed fills the invoice schema with deterministic demo data so the
// question pipeline has something to answer against locally.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

type Counts struct {
	Vendors   int
	Customers int
	Invoices  int
	LineItems int
	Payments  int
}

type Service struct {
	db  *sql.DB
	log *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{db: db, log: logger}, nil
}

// Insert writes the dataset in one transaction; a failure leaves the
// database untouched.
func (s *Service) Insert(ctx context.Context, data Dataset) (Counts, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var counts Counts
	for _, vendor := range data.Vendors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "Vendor" ("id", "name", "partyNumber", "address", "taxId") VALUES ($1, $2, $3, $4, $5)`,
			vendor.ID, vendor.Name, vendor.PartyNumber, vendor.Address, vendor.TaxID,
		); err != nil {
			return Counts{}, fmt.Errorf("insert vendor %q: %w", vendor.Name, err)
		}
		counts.Vendors++
	}
	for _, customer := range data.Customers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "Customer" ("id", "name", "address", "taxId") VALUES ($1, $2, $3, $4)`,
			customer.ID, customer.Name, customer.Address, customer.TaxID,
		); err != nil {
			return Counts{}, fmt.Errorf("insert customer %q: %w", customer.Name, err)
		}
		counts.Customers++
	}
	for _, invoice := range data.Invoices {
		if err := insertInvoice(ctx, tx, invoice, &counts); err != nil {
			return Counts{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Counts{}, fmt.Errorf("commit seed tx: %w", err)
	}
	s.log.InfoContext(ctx, "demo data inserted",
		slog.Int("vendors", counts.Vendors),
		slog.Int("customers", counts.Customers),
		slog.Int("invoices", counts.Invoices),
		slog.Int("line_items", counts.LineItems),
		slog.Int("payments", counts.Payments),
	)
	return counts, nil
}

func insertInvoice(ctx context.Context, tx *sql.Tx, invoice Invoice, counts *Counts) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO "Invoice" ("id", "invoiceIdText", "invoiceDate", "deliveryDate", "subtotal", "totalTax", "invoiceTotal", "currency", "documentType", "vendorId", "customerId")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		invoice.ID, invoice.InvoiceIDText, invoice.InvoiceDate, invoice.DeliveryDate,
		invoice.Subtotal, invoice.TotalTax, invoice.InvoiceTotal,
		invoice.Currency, invoice.DocumentType, invoice.VendorID, invoice.CustomerID,
	); err != nil {
		return fmt.Errorf("insert invoice %s: %w", invoice.InvoiceIDText, err)
	}
	counts.Invoices++

	for _, item := range invoice.LineItems {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "InvoiceLineItem" ("id", "invoiceId", "description", "quantity", "unitPrice", "totalPrice", "vatRate", "vatAmount")
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, invoice.ID, item.Description, item.Quantity, item.UnitPrice, item.TotalPrice, item.VATRate, item.VATAmount,
		); err != nil {
			return fmt.Errorf("insert line item for %s: %w", invoice.InvoiceIDText, err)
		}
		counts.LineItems++
	}

	if invoice.Payment != nil {
		payment := invoice.Payment
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO "Payment" ("id", "invoiceId", "dueDate", "paymentTerms", "bankAccount") VALUES ($1, $2, $3, $4, $5)`,
			payment.ID, invoice.ID, payment.DueDate, payment.PaymentTerms, payment.BankAccount,
		); err != nil {
			return fmt.Errorf("insert payment for %s: %w", invoice.InvoiceIDText, err)
		}
		counts.Payments++
	}
	return nil
}
