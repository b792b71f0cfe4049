// Package views builds the two reporting tables consumed by the
// dashboard: the invoice view enriched with apportioned freight, and
// the transport document view with complement consolidation and
// per shipment cost metrics. Views are recomputed from full store
// snapshots on every build; callers cache them.
package views

import (
	"time"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/allocate"
	"github.com/FelipeCGomes/leitorxml/internal/fiscal/utils"
	"github.com/FelipeCGomes/leitorxml/internal/store"
)

// InvoiceRow is one invoice of the invoice view: the stored header plus
// the costs apportioned to it and display oriented derived fields.
type InvoiceRow struct {
	store.InvoiceHeader

	FreightValue float64 `json:"freight_value"`
	TollValue    float64 `json:"toll_value"`
	// CTeNumbers lists the CT-es funding this invoice, "" when none.
	CTeNumbers string `json:"cte_numbers"`
	// FinalCarrier prefers the CT-e issuer over the carrier stated on
	// the invoice itself.
	FinalCarrier  string    `json:"final_carrier"`
	ReferenceDate time.Time `json:"reference_date"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	DestUF        string    `json:"dest_uf"`
	Region        string    `json:"region"`
	FreightType   string    `json:"freight_type"`
	Operation     string    `json:"operation"`
}

// BuildInvoiceView joins every invoice header with its apportioned
// freight and toll. Invoices no CT-e references keep zero costs.
func BuildInvoiceView(headers []store.InvoiceHeader, lines []store.TransportLine) []InvoiceRow {
	weights := make(map[string]float64, len(headers))
	for _, h := range headers {
		weights[h.InvoiceKey] = h.GrossWeightKg
	}
	allocations := allocate.Apportion(lines, weights)

	rows := make([]InvoiceRow, 0, len(headers))
	for _, h := range headers {
		alloc := allocations[h.InvoiceKey]

		carrier := alloc.CarrierName
		if carrier == "" {
			carrier = h.CarrierName
		}
		if carrier == "" {
			carrier = "---"
		}

		refDate := utils.ParseDate(h.IssueDate)
		year, month := 0, 0
		if !refDate.IsZero() {
			year = refDate.Year()
			month = int(refDate.Month())
		}

		operation := h.OperationType
		if operation == "" {
			operation = "Outros"
		}

		destUF := utils.UFFromCity(h.DestinationCity)

		rows = append(rows, InvoiceRow{
			InvoiceHeader: h,
			FreightValue:  alloc.Freight,
			TollValue:     alloc.Toll,
			CTeNumbers:    alloc.DocNumbers,
			FinalCarrier:  carrier,
			ReferenceDate: refDate,
			Year:          year,
			Month:         month,
			DestUF:        destUF,
			Region:        utils.Region(destUF),
			FreightType:   utils.FreightModeLabel(h.FreightMode),
			Operation:     operation,
		})
	}
	return rows
}
