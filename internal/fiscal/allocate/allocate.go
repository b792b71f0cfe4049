// Package allocate apportions document level freight and toll charges
// across the invoices a CT-e covers. A CT-e states one total for the
// whole shipment; the share of each invoice is proportional to its
// declared gross weight, falling back to an equal split when no weight
// is known. One invoice may be funded by several CT-es (redispatch
// legs), so shares are summed per invoice across documents.
package allocate

import (
	"sort"
	"strings"

	"github.com/FelipeCGomes/leitorxml/internal/store"
)

// Allocation is the apportioned cost of one invoice, accumulated over
// every transport document that references it.
type Allocation struct {
	Freight float64 `json:"freight"`
	Toll    float64 `json:"toll"`
	// DocNumbers lists the distinct CT-e numbers funding the invoice,
	// sorted and comma joined for display.
	DocNumbers string `json:"doc_numbers"`
	// CarrierName is one of the issuing carriers. When several CT-es
	// reference the invoice the pick is arbitrary (no ordering is
	// defined upstream).
	CarrierName string `json:"carrier_name"`
}

type documentGroup struct {
	lines       []store.TransportLine
	totalWeight float64
}

// Apportion computes, per invoice key, the freight and toll shares over
// all given CT-e lines. weights maps invoice keys to gross weight in kg;
// invoices absent from the map count as weightless and participate in
// the equal split fallback.
func Apportion(lines []store.TransportLine, weights map[string]float64) map[string]Allocation {
	groups := make(map[string]*documentGroup)
	for _, l := range lines {
		g, ok := groups[l.OwnKey]
		if !ok {
			g = &documentGroup{}
			groups[l.OwnKey] = g
		}
		g.lines = append(g.lines, l)
		g.totalWeight += weights[l.InvoiceKey]
	}

	type accum struct {
		freight float64
		toll    float64
		docs    map[string]struct{}
		carrier string
	}
	byInvoice := make(map[string]*accum)

	for _, g := range groups {
		n := len(g.lines)
		for _, l := range g.lines {
			a, ok := byInvoice[l.InvoiceKey]
			if !ok {
				a = &accum{docs: make(map[string]struct{})}
				byInvoice[l.InvoiceKey] = a
			}
			a.freight += share(l.FreightValue, weights[l.InvoiceKey], g.totalWeight, n)
			a.toll += share(l.TollValue, weights[l.InvoiceKey], g.totalWeight, n)
			if l.Number != "" {
				a.docs[l.Number] = struct{}{}
			}
			if a.carrier == "" {
				a.carrier = l.IssuerName
			}
		}
	}

	out := make(map[string]Allocation, len(byInvoice))
	for key, a := range byInvoice {
		out[key] = Allocation{
			Freight:     a.freight,
			Toll:        a.toll,
			DocNumbers:  joinSorted(a.docs),
			CarrierName: a.carrier,
		}
	}
	return out
}

// share splits one document total. Weighted by invoice weight when the
// document carries any weight at all, equal split otherwise. A zero
// total always yields exactly 0.
func share(total, weight, totalWeight float64, count int) float64 {
	if total == 0 {
		return 0
	}
	if totalWeight > 0 {
		return total * (weight / totalWeight)
	}
	if count > 0 {
		return total / float64(count)
	}
	return total
}

func joinSorted(set map[string]struct{}) string {
	nums := make([]string, 0, len(set))
	for n := range set {
		nums = append(nums, n)
	}
	sort.Strings(nums)
	return strings.Join(nums, ", ")
}
