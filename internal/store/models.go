package store

import (
	"database/sql"
	"time"
)

// TransportLine represents one row of the 'cte_lines' table: a single
// (CT-e, linked NF-e) pair. Freight, toll and cargo weight are document
// totals and repeat on every line of the same CT-e key.
type TransportLine struct {
	ID              int64          `db:"id" json:"-"`
	OwnKey          string         `db:"own_key" json:"own_key"`
	InvoiceKey      string         `db:"invoice_key" json:"invoice_key"`
	IssueDate       string         `db:"issue_date" json:"issue_date"`
	Number          string         `db:"cte_number" json:"cte_number"`
	IssuerName      string         `db:"issuer_name" json:"issuer_name"`
	IssuerCNPJ      string         `db:"issuer_cnpj" json:"issuer_cnpj"`
	SenderName      string         `db:"sender_name" json:"sender_name"`
	RecipientName   string         `db:"recipient_name" json:"recipient_name"`
	FreightValue    float64        `db:"freight_value" json:"freight_value"`
	CargoWeightKg   float64        `db:"cargo_weight_kg" json:"cargo_weight_kg"`
	InvoiceNumber   string         `db:"invoice_number" json:"invoice_number"`
	OriginCity      string         `db:"origin_city" json:"origin_city"`
	DestinationCity string         `db:"destination_city" json:"destination_city"`
	TollValue       float64        `db:"toll_value" json:"toll_value"`
	RefKey          string         `db:"ref_key" json:"ref_key"`
	TypeCode        string         `db:"cte_type" json:"cte_type"`
	SourceFile      string         `db:"source_file" json:"source_file"`
	ManualStage     sql.NullString `db:"manual_stage" json:"manual_stage"`
}

// CT-e type codes as emitted in ide/tpCTe.
const (
	CTeTypeNormal     = "0"
	CTeTypeComplement = "1"
	CTeTypeSubstitute = "3"
)

// IsComplement reports whether the line belongs to a true complement
// document: type code 1 and a non empty reference to the amended CT-e.
func (t TransportLine) IsComplement() bool {
	return t.TypeCode == CTeTypeComplement && t.RefKey != ""
}

// InvoiceHeader represents one row of the 'nfe_headers' table, one per
// NF-e access key regardless of how many CT-e lines reference it.
type InvoiceHeader struct {
	InvoiceKey      string  `db:"invoice_key" json:"invoice_key"`
	IssueDate       string  `db:"issue_date" json:"issue_date"`
	Number          string  `db:"invoice_number" json:"invoice_number"`
	IssuerName      string  `db:"issuer_name" json:"issuer_name"`
	RecipientName   string  `db:"recipient_name" json:"recipient_name"`
	IssuerCNPJ      string  `db:"issuer_cnpj" json:"issuer_cnpj"`
	RecipientCNPJ   string  `db:"recipient_cnpj" json:"recipient_cnpj"`
	DestinationUF   string  `db:"destination_uf" json:"destination_uf"`
	TotalValue      float64 `db:"total_value" json:"total_value"`
	GrossWeightKg   float64 `db:"gross_weight_kg" json:"gross_weight_kg"`
	CarrierName     string  `db:"carrier_name" json:"carrier_name"`
	OriginCity      string  `db:"origin_city" json:"origin_city"`
	DestinationCity string  `db:"destination_city" json:"destination_city"`
	FreightMode     string  `db:"freight_mode" json:"freight_mode"`
	MainCFOP        string  `db:"main_cfop" json:"main_cfop"`
	OperationType   string  `db:"operation_type" json:"operation_type"`
	ItemCount       int     `db:"item_count" json:"item_count"`
	OriginCEP       string  `db:"origin_cep" json:"origin_cep"`
	DestinationCEP  string  `db:"destination_cep" json:"destination_cep"`
	// Route distance is not computed. The column stays so the reporting
	// contract does not change when the simulator comes back.
	DistanceKm float64 `db:"distance_km" json:"distance_km"`
	SourceFile string  `db:"source_file" json:"source_file"`
}

// InvoiceItem represents one row of the 'nfe_items' table.
type InvoiceItem struct {
	ID              int64   `db:"id" json:"-"`
	InvoiceKey      string  `db:"invoice_key" json:"invoice_key"`
	InvoiceNumber   string  `db:"invoice_number" json:"invoice_number"`
	IssuerName      string  `db:"issuer_name" json:"issuer_name"`
	ItemNumber      string  `db:"item_number" json:"item_number"`
	Product         string  `db:"product" json:"product"`
	NCM             string  `db:"ncm" json:"ncm"`
	CFOP            string  `db:"cfop" json:"cfop"`
	Unit            string  `db:"unit" json:"unit"`
	QuantityDisplay string  `db:"quantity_display" json:"quantity_display"`
	Quantity        float64 `db:"quantity" json:"quantity"`
	TotalValue      float64 `db:"total_value" json:"total_value"`
	SourceFile      string  `db:"source_file" json:"source_file"`
}

// ClassificationRule is an operator confirmed label for a (CFOP, flow)
// pair, overriding the default flow classification.
type ClassificationRule struct {
	ID    int64  `db:"id" json:"-"`
	CFOP  string `db:"cfop" json:"cfop"`
	Flow  string `db:"flow" json:"flow"`
	Label string `db:"defined_type" json:"label"`
}

// ErrorLog is one append-only ingestion log entry.
type ErrorLog struct {
	ID         int64     `db:"id" json:"-"`
	LoggedAt   time.Time `db:"logged_at" json:"logged_at"`
	SourceFile string    `db:"source_file" json:"source_file"`
	DocType    string    `db:"doc_type" json:"doc_type"`
	Status     string    `db:"status" json:"status"`
	Message    string    `db:"message" json:"message"`
}

// Log status values. Info entries are expected conditions (e.g. event
// notifications), not ingestion defects.
const (
	LogStatusError = "ERRO"
	LogStatusInfo  = "INFO"
)
