package seed

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewGenerator(42, start).Dataset(3, 2, 10)
	b := NewGenerator(42, start).Dataset(3, 2, 10)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different datasets")
	}
	c := NewGenerator(43, start).Dataset(3, 2, 10)
	if reflect.DeepEqual(a, c) {
		t.Fatal("different seeds produced identical datasets")
	}
}

func TestGeneratorAmountsAreConsistent(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	data := NewGenerator(7, start).Dataset(4, 3, 50)

	if len(data.Vendors) != 4 || len(data.Customers) != 3 || len(data.Invoices) != 50 {
		t.Fatalf("counts = %d/%d/%d", len(data.Vendors), len(data.Customers), len(data.Invoices))
	}
	vendorIDs := map[string]bool{}
	for _, vendor := range data.Vendors {
		if _, err := uuid.Parse(vendor.ID); err != nil {
			t.Fatalf("vendor id %q is not a uuid", vendor.ID)
		}
		vendorIDs[vendor.ID] = true
	}
	for _, invoice := range data.Invoices {
		if !vendorIDs[invoice.VendorID] {
			t.Fatalf("invoice %s references unknown vendor", invoice.InvoiceIDText)
		}
		if len(invoice.LineItems) == 0 {
			t.Fatalf("invoice %s has no line items", invoice.InvoiceIDText)
		}
		var lines float64
		for _, item := range invoice.LineItems {
			lines += item.TotalPrice
		}
		if math.Abs(lines-invoice.Subtotal) > 0.005 {
			t.Fatalf("invoice %s subtotal %.2f != lines %.2f", invoice.InvoiceIDText, invoice.Subtotal, lines)
		}
		if math.Abs(invoice.Subtotal+invoice.TotalTax-invoice.InvoiceTotal) > 0.005 {
			t.Fatalf("invoice %s total %.2f != %.2f + %.2f", invoice.InvoiceIDText, invoice.InvoiceTotal, invoice.Subtotal, invoice.TotalTax)
		}
		if invoice.InvoiceDate.Before(start) || !invoice.InvoiceDate.Before(start.AddDate(1, 0, 0)) {
			t.Fatalf("invoice date %s outside seeded year", invoice.InvoiceDate)
		}
		if invoice.Payment != nil && !invoice.Payment.DueDate.After(invoice.InvoiceDate) {
			t.Fatalf("payment due %s not after invoice date %s", invoice.Payment.DueDate, invoice.InvoiceDate)
		}
	}
}

func TestGeneratorSkipsInvoicesWithoutParties(t *testing.T) {
	data := NewGenerator(1, time.Now()).Dataset(0, 2, 5)
	if len(data.Invoices) != 0 {
		t.Fatalf("invoices = %d, want 0 without vendors", len(data.Invoices))
	}
}

func TestGeneratorNamesStayUnique(t *testing.T) {
	data := NewGenerator(1, time.Now()).Dataset(len(vendorNames)+2, 1, 0)
	seen := map[string]bool{}
	for _, vendor := range data.Vendors {
		if seen[vendor.Name] {
			t.Fatalf("duplicate vendor name %q", vendor.Name)
		}
		seen[vendor.Name] = true
	}
}
