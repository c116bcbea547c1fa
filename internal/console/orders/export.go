package orders

import (
	"encoding/csv"
	"io"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/money"
)

const dateLayout = "02/01/2006"

var csvHeader = []string{"Order ID", "Date", "Email", "Product", "Amount", "Status"}

// WriteCSV writes the given rows, usually the loaded page, in a fixed
// column order.
func WriteCSV(w io.Writer, rows []models.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range rows {
		email := ""
		if o.User != nil {
			email = o.User.Email
		}
		record := []string{
			o.ID.String(),
			o.CreatedAt.UTC().Format(dateLayout),
			email,
			o.ProductType.Label(),
			money.Pounds(o.Amount),
			string(o.Status),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary holds statistics over the loaded rows only.
type Summary struct {
	Orders        int
	Succeeded     int
	Processing    int
	Failed        int
	Refunded      int
	RevenuePence  int64
	RefundedPence int64
}

// Summarize computes page-scoped statistics. Revenue counts succeeded orders.
func Summarize(rows []models.Order) Summary {
	var s Summary
	for _, o := range rows {
		s.Orders++
		switch o.Status {
		case enums.OrderStatusSucceeded:
			s.Succeeded++
			s.RevenuePence += o.Amount
		case enums.OrderStatusProcessing:
			s.Processing++
		case enums.OrderStatusFailed:
			s.Failed++
		case enums.OrderStatusRefunded:
			s.Refunded++
			s.RefundedPence += o.Amount
		}
	}
	return s
}
