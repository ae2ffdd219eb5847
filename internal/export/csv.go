// Package export renders reports and service tickets as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"mobile-pos/internal/domain"

	"github.com/shopspring/decimal"
)

// Kind selects which CSV a report export produces
type Kind string

const (
	KindOverview Kind = "overview"
	KindProducts Kind = "products"
	KindServices Kind = "services"
)

// Valid reports whether k is a known export kind
func (k Kind) Valid() bool {
	switch k {
	case KindOverview, KindProducts, KindServices:
		return true
	}
	return false
}

// DateLayout is used for every date column
const DateLayout = "2006-01-02"

var (
	overviewHeader = []string{"Period", "Sales", "Transactions", "Items Sold", "Avg Order Value"}
	productsHeader = []string{"Item", "Date", "Quantity", "Unit Price", "Total"}
	servicesHeader = []string{
		"S.No", "Mobile Model", "Problem", "Customer Name", "Phone Number",
		"Service Date", "Amount", "Material Cost", "Comments",
	}
)

// WriteOverviewCSV emits one row per report bucket
func WriteOverviewCSV(w io.Writer, report domain.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(overviewHeader); err != nil {
		return err
	}
	for _, bucket := range report.Buckets {
		if err := writer.Write([]string{
			bucket.Label,
			money(bucket.TotalSales),
			strconv.Itoa(bucket.Transactions),
			strconv.Itoa(bucket.ItemsSold),
			money(bucket.AvgOrderValue),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProductsCSV emits the sold lines of a report
func WriteProductsCSV(w io.Writer, report domain.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(productsHeader); err != nil {
		return err
	}
	for _, p := range report.Products {
		if err := writer.Write([]string{
			p.ItemName,
			p.Date.Format(DateLayout),
			strconv.Itoa(p.Quantity),
			money(p.UnitPrice),
			money(p.Total),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteServicesCSV emits service tickets numbered from 1. Material cost is
// left blank when unknown.
func WriteServicesCSV(w io.Writer, tickets []*domain.ServiceTicket) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(servicesHeader); err != nil {
		return err
	}
	for i, t := range tickets {
		materialCost := ""
		if t.MaterialCost != nil {
			materialCost = money(*t.MaterialCost)
		}
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			t.ModelName,
			t.Problem,
			t.CustomerName,
			t.PhoneNumber,
			t.ServiceDate.Format(DateLayout),
			money(t.Amount),
			materialCost,
			t.Comments,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Filename builds the attachment name for a download
func Filename(kind Kind, report domain.Report) string {
	return fmt.Sprintf("%s-report-%s-to-%s.csv", kind, report.From.Format(DateLayout), report.To.Format(DateLayout))
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
