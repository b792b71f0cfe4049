package views

import (
	"sort"
	"strings"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/utils"
	"github.com/FelipeCGomes/leitorxml/internal/store"
)

// TransportRow is one shipment of the transport document view. Rows are
// grouped by (CT-e number, carrier CNPJ) rather than by the document's
// own key: two physical documents sharing number and issuer merge into
// one reporting row. Deliberate simplification, kept as is.
type TransportRow struct {
	Number      string `json:"cte_number"`
	CarrierCNPJ string `json:"carrier_cnpj"`
	IssueDate   string `json:"issue_date"`
	// ComplementNumbers lists the complement CT-es folded into
	// TotalFreight, sorted and deduplicated.
	ComplementNumbers string  `json:"complement_numbers"`
	OriginCity        string  `json:"origin_city"`
	IssuerCNPJ        string  `json:"issuer_cnpj"`
	DestinationCity   string  `json:"destination_city"`
	RecipientCNPJ     string  `json:"recipient_cnpj"`
	CarrierName       string  `json:"carrier_name"`
	DeclaredWeightKg  float64 `json:"declared_weight_kg"`
	InvoiceWeightKg   float64 `json:"invoice_weight_kg"`
	InvoiceValue      float64 `json:"invoice_value"`
	// TotalFreight is the document freight plus every complement
	// referencing it. Max across lines, not sum: the value repeats on
	// each linked invoice line.
	TotalFreight float64 `json:"total_freight"`
	InvoiceCount int     `json:"invoice_count"`
	FreightType  string  `json:"freight_type"`
	Operation    string  `json:"operation"`
	MainCFOP     string  `json:"main_cfop"`
	Stage        string  `json:"stage"`
	OwnKey       string  `json:"own_key"`
	CostPerTon   float64 `json:"cost_per_ton"`
}

// complementTotals sums, per referenced CT-e key, the freight of the
// complement documents pointing at it.
type complementTotals struct {
	value   float64
	numbers map[string]struct{}
}

// BuildTransportView consolidates complements into their main documents
// and groups the result per shipment.
func BuildTransportView(lines []store.TransportLine, headers []store.InvoiceHeader) []TransportRow {
	byInvoice := make(map[string]store.InvoiceHeader, len(headers))
	for _, h := range headers {
		byInvoice[h.InvoiceKey] = h
	}

	complements := make(map[string]*complementTotals)
	var mains []store.TransportLine
	for _, l := range lines {
		if l.IsComplement() {
			ct, ok := complements[l.RefKey]
			if !ok {
				ct = &complementTotals{numbers: make(map[string]struct{})}
				complements[l.RefKey] = ct
			}
			ct.value += l.FreightValue
			if l.Number != "" {
				ct.numbers[l.Number] = struct{}{}
			}
			continue
		}
		mains = append(mains, l)
	}

	type groupKey struct {
		number string
		cnpj   string
	}

	groups := make(map[groupKey]*TransportRow)
	invoiceFilled := make(map[groupKey]bool)
	var order []groupKey

	for _, l := range mains {
		number := l.Number
		if number == "" {
			number = "ND"
		}
		cnpj := l.IssuerCNPJ
		if cnpj == "" {
			cnpj = "ND"
		}
		key := groupKey{number: number, cnpj: cnpj}

		totalFreight := l.FreightValue
		var complNumbers string
		if ct, ok := complements[l.OwnKey]; ok {
			totalFreight += ct.value
			complNumbers = joinSorted(ct.numbers)
		}

		invoice, hasInvoice := byInvoice[l.InvoiceKey]

		row, ok := groups[key]
		if !ok {
			stage := "Entrega"
			if l.ManualStage.Valid && l.ManualStage.String != "" {
				stage = l.ManualStage.String
			}
			row = &TransportRow{
				Number:            number,
				CarrierCNPJ:       cnpj,
				IssueDate:         l.IssueDate,
				ComplementNumbers: complNumbers,
				OriginCity:        l.OriginCity,
				DestinationCity:   l.DestinationCity,
				CarrierName:       l.IssuerName,
				FreightType:       "Outros",
				Operation:         "Outros",
				Stage:             stage,
				OwnKey:            l.OwnKey,
			}
			groups[key] = row
			order = append(order, key)
		}

		// invoice derived identity fields come from the first line of
		// the group whose invoice is actually stored, not blindly from
		// the first line
		if hasInvoice && !invoiceFilled[key] {
			if invoice.OperationType != "" {
				row.Operation = invoice.OperationType
			}
			row.FreightType = utils.FreightModeLabel(invoice.FreightMode)
			row.IssuerCNPJ = invoice.IssuerCNPJ
			row.RecipientCNPJ = invoice.RecipientCNPJ
			row.MainCFOP = invoice.MainCFOP
			invoiceFilled[key] = true
		}

		if l.CargoWeightKg > row.DeclaredWeightKg {
			row.DeclaredWeightKg = l.CargoWeightKg
		}
		if totalFreight > row.TotalFreight {
			row.TotalFreight = totalFreight
		}
		row.InvoiceWeightKg += invoice.GrossWeightKg
		row.InvoiceValue += invoice.TotalValue
		row.InvoiceCount++
	}

	rows := make([]TransportRow, 0, len(order))
	for _, key := range order {
		row := groups[key]
		if row.DeclaredWeightKg > 0 {
			row.CostPerTon = row.TotalFreight / (row.DeclaredWeightKg / 1000)
		}
		rows = append(rows, *row)
	}
	return rows
}

func joinSorted(set map[string]struct{}) string {
	nums := make([]string, 0, len(set))
	for n := range set {
		nums = append(nums, n)
	}
	sort.Strings(nums)
	return strings.Join(nums, ", ")
}
