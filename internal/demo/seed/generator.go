package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type Vendor struct {
	ID          string
	Name        string
	PartyNumber string
	Address     string
	TaxID       string
}

type Customer struct {
	ID      string
	Name    string
	Address string
	TaxID   string
}

type LineItem struct {
	ID          string
	Description string
	Quantity    float64
	UnitPrice   float64
	TotalPrice  float64
	VATRate     float64
	VATAmount   float64
}

type Payment struct {
	ID           string
	DueDate      time.Time
	PaymentTerms string
	BankAccount  string
}

// Invoice amounts satisfy subtotal = sum(line totals) and
// invoiceTotal = subtotal + totalTax, each rounded to cents.
type Invoice struct {
	ID            string
	InvoiceIDText string
	InvoiceDate   time.Time
	DeliveryDate  time.Time
	Subtotal      float64
	TotalTax      float64
	InvoiceTotal  float64
	Currency      string
	DocumentType  string
	VendorID      string
	CustomerID    string
	LineItems     []LineItem
	Payment       *Payment
}

type Dataset struct {
	Vendors   []Vendor
	Customers []Customer
	Invoices  []Invoice
}

type Generator struct {
	rnd   *rand.Rand
	start time.Time
}

// NewGenerator produces the same dataset for the same seed and start date.
// Invoice dates fall in the 365 days after start.
func NewGenerator(seed int64, start time.Time) *Generator {
	return &Generator{
		rnd:   rand.New(rand.NewSource(seed)),
		start: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
	}
}

func (g *Generator) Dataset(vendorCount, customerCount, invoiceCount int) Dataset {
	data := Dataset{
		Vendors:   make([]Vendor, 0, vendorCount),
		Customers: make([]Customer, 0, customerCount),
		Invoices:  make([]Invoice, 0, invoiceCount),
	}
	for i := 0; i < vendorCount; i++ {
		data.Vendors = append(data.Vendors, g.vendor(i))
	}
	for i := 0; i < customerCount; i++ {
		data.Customers = append(data.Customers, g.customer(i))
	}
	if vendorCount == 0 || customerCount == 0 {
		return data
	}
	for i := 0; i < invoiceCount; i++ {
		vendor := data.Vendors[g.rnd.Intn(vendorCount)]
		customer := data.Customers[g.rnd.Intn(customerCount)]
		data.Invoices = append(data.Invoices, g.invoice(i, vendor.ID, customer.ID))
	}
	return data
}

func (g *Generator) vendor(index int) Vendor {
	name := vendorNames[index%len(vendorNames)]
	if index >= len(vendorNames) {
		name = fmt.Sprintf("%s %d", name, index/len(vendorNames)+1)
	}
	return Vendor{
		ID:          g.newID(),
		Name:        name,
		PartyNumber: fmt.Sprintf("P-%05d", 10000+index),
		Address:     fmt.Sprintf("%d %s, %s", 1+g.rnd.Intn(199), pickOne(g.rnd, streets), pickOne(g.rnd, cities)),
		TaxID:       fmt.Sprintf("DE%09d", g.rnd.Intn(1_000_000_000)),
	}
}

func (g *Generator) customer(index int) Customer {
	name := customerNames[index%len(customerNames)]
	if index >= len(customerNames) {
		name = fmt.Sprintf("%s %d", name, index/len(customerNames)+1)
	}
	return Customer{
		ID:      g.newID(),
		Name:    name,
		Address: fmt.Sprintf("%d %s, %s", 1+g.rnd.Intn(199), pickOne(g.rnd, streets), pickOne(g.rnd, cities)),
		TaxID:   fmt.Sprintf("DE%09d", g.rnd.Intn(1_000_000_000)),
	}
}

func (g *Generator) invoice(index int, vendorID, customerID string) Invoice {
	invoiceDate := g.start.AddDate(0, 0, g.rnd.Intn(365))
	invoice := Invoice{
		ID:            g.newID(),
		InvoiceIDText: fmt.Sprintf("INV-%s-%05d", invoiceDate.Format("2006"), index+1),
		InvoiceDate:   invoiceDate,
		DeliveryDate:  invoiceDate.AddDate(0, 0, g.rnd.Intn(14)),
		Currency:      "EUR",
		DocumentType:  pickOne(g.rnd, []string{"invoice", "invoice", "invoice", "credit_note"}),
		VendorID:      vendorID,
		CustomerID:    customerID,
	}

	lines := 1 + g.rnd.Intn(5)
	var subtotal, tax float64
	for i := 0; i < lines; i++ {
		item := g.lineItem()
		subtotal += item.TotalPrice
		tax += item.VATAmount
		invoice.LineItems = append(invoice.LineItems, item)
	}
	invoice.Subtotal = round2(subtotal)
	invoice.TotalTax = round2(tax)
	invoice.InvoiceTotal = round2(invoice.Subtotal + invoice.TotalTax)

	if g.rnd.Intn(100) < 80 {
		netDays := pickOne(g.rnd, []int{14, 30, 45, 60})
		invoice.Payment = &Payment{
			ID:           g.newID(),
			DueDate:      invoiceDate.AddDate(0, 0, netDays),
			PaymentTerms: fmt.Sprintf("Net %d", netDays),
			BankAccount:  fmt.Sprintf("DE%020d", g.rnd.Int63()),
		}
	}
	return invoice
}

func (g *Generator) lineItem() LineItem {
	quantity := float64(1 + g.rnd.Intn(10))
	unitPrice := round2(5 + g.rnd.Float64()*495)
	total := round2(quantity * unitPrice)
	rate := pickOne(g.rnd, []float64{0, 7, 19, 19})
	return LineItem{
		ID:          g.newID(),
		Description: pickOne(g.rnd, descriptions),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  total,
		VATRate:     rate,
		VATAmount:   round2(total * rate / 100),
	}
}

func (g *Generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.rnd)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne[T any](r *rand.Rand, values []T) T {
	return values[r.Intn(len(values))]
}

var (
	vendorNames = []string{
		"Nordwind Logistik", "Bergmann Bürobedarf", "Alpen Software", "Rhein Energie Service",
		"Kessler Druck", "Hansa Facility", "Falk IT Consulting", "Lindner Catering",
		"Weber Elektrotechnik", "Sommer Reinigung", "Vogel Marketing", "Becker Transport",
	}
	customerNames = []string{
		"Acme Analytics GmbH", "Blue Harbor AG", "Cedar Works KG", "Delta Retail GmbH",
		"Evergreen Health", "Fjord Media", "Granite Capital", "Helios Manufacturing",
	}
	streets      = []string{"Hauptstraße", "Bahnhofstraße", "Gartenweg", "Industriestraße", "Marktplatz"}
	cities       = []string{"Berlin", "Hamburg", "München", "Köln", "Frankfurt", "Stuttgart"}
	descriptions = []string{
		"Consulting hours", "Office supplies", "Software license", "Freight charges",
		"Maintenance contract", "Printing services", "Catering", "Cloud hosting",
		"Cleaning services", "Hardware",
	}
)
