package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDate parses the dd/mm/yyyy dates carried by the normalized rows,
// falling back to yyyy-mm-dd. Unparseable input yields the zero time.
func ParseDate(dateStr string) time.Time {
	if dateStr == "" {
		return time.Time{}
	}
	t, err := time.Parse("02/01/2006", dateStr)
	if err == nil {
		return t
	}
	t, err = time.Parse("2006-01-02", dateStr)
	if err == nil {
		return t
	}
	return time.Time{}
}

// ParseFloat parses a fiscal XML decimal. The documents use either comma
// or point as decimal separator; empty or malformed text yields 0.
func ParseFloat(valStr string) float64 {
	valStr = strings.TrimSpace(valStr)
	if valStr == "" {
		return 0.0
	}
	cleanStr := strings.ReplaceAll(valStr, ",", ".")
	val, err := strconv.ParseFloat(cleanStr, 64)
	if err != nil {
		return 0.0
	}
	return val
}

// DigitsOnly strips everything but digits from a CNPJ/CPF, so punctuated
// and bare forms compare equal.
func DigitsOnly(doc string) string {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// InvoiceNumberFromKey extracts the invoice number embedded at positions
// [25:34) of a 44 digit NF-e access key. Anything else yields "".
func InvoiceNumberFromKey(key string) string {
	if len(key) != 44 {
		return ""
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return ""
		}
	}
	n, err := strconv.Atoi(key[25:34])
	if err != nil {
		return ""
	}
	return strconv.Itoa(n)
}

// Region buckets a UF into the IBGE macro region. Unknown states fall in
// Nordeste, matching how the reporting layer has always bucketed them.
func Region(uf string) string {
	switch strings.ToUpper(strings.TrimSpace(uf)) {
	case "RS", "SC", "PR":
		return "Sul"
	case "SP", "MG", "RJ", "ES":
		return "Sudeste"
	case "MT", "MS", "GO", "DF":
		return "Centro-Oeste"
	case "AM", "RR", "AP", "PA", "TO", "RO", "AC":
		return "Norte"
	default:
		return "Nordeste"
	}
}

// UFFromCity extracts the state from a "Municipality-UF" city string.
func UFFromCity(city string) string {
	if !strings.Contains(city, "-") {
		return "ND"
	}
	parts := strings.Split(city, "-")
	return strings.TrimSpace(parts[len(parts)-1])
}

// FreightModeLabel maps the modFrete code to its display label.
func FreightModeLabel(code string) string {
	switch strings.TrimSpace(code) {
	case "0":
		return "CIF"
	case "1":
		return "FOB"
	default:
		return "Outros"
	}
}

// BRWeight formats kilograms in Brazilian notation with three decimals,
// e.g. 1234.5 -> "1.234,500".
func BRWeight(kg float64) string {
	s := fmt.Sprintf("%.3f", kg)

	parts := strings.SplitN(s, ".", 2)
	intPart, decPart := parts[0], parts[1]

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + decPart
	if neg {
		out = "-" + out
	}
	return out
}
