package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para POST /api/invoices.
// Los totales nunca se reciben: se calculan a partir de los conceptos.
type CreateInvoiceRequest struct {
	OrderRef      string           `json:"order_ref,omitempty"`   // referencia del pedido en el sistema colaborador
	LocationID    string           `json:"location_id,omitempty"` // sucursal; por defecto la del token
	Series        string           `json:"series,omitempty"`
	Type          string           `json:"type,omitempty"`           // I, E, P, T (default I)
	PaymentMethod string           `json:"payment_method,omitempty"` // PUE, PPD (default PUE)
	PaymentForm   string           `json:"payment_form,omitempty"`   // c_FormaPago (default 01)
	Currency      string           `json:"currency,omitempty"`       // default MXN
	PlaceOfIssue  string           `json:"place_of_issue,omitempty"` // default CP del emisor
	Receptor      ReceptorRequest  `json:"receptor"`
	Concepts      []ConceptRequest `json:"concepts"`
	Note          string           `json:"note,omitempty"`
}

// ReceptorRequest datos fiscales del receptor.
type ReceptorRequest struct {
	RFC        string `json:"rfc"`
	Name       string `json:"name"`
	CFDIUse    string `json:"cfdi_use"`
	TaxRegime  string `json:"tax_regime"`
	PostalCode string `json:"postal_code"`
}

// ConceptRequest concepto (línea) del comprobante.
type ConceptRequest struct {
	ProductCode string          `json:"product_code,omitempty"`
	UnitCode    string          `json:"unit_code,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	Amount      decimal.Decimal `json:"amount"` // Importe declarado
	Discount    decimal.Decimal `json:"discount,omitempty"`
	Taxes       []TaxRequest    `json:"taxes,omitempty"`
}

// TaxRequest impuesto de un concepto. Base y Amount se calculan si se omiten.
type TaxRequest struct {
	Kind       string           `json:"kind"`                  // transferred | withheld
	Tax        string           `json:"tax"`                   // 001 ISR, 002 IVA, 003 IEPS
	FactorType string           `json:"factor_type,omitempty"` // default Tasa
	Rate       decimal.Decimal  `json:"rate"`
	Base       *decimal.Decimal `json:"base,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
}

// PartyResponse emisor o receptor en respuestas.
type PartyResponse struct {
	RFC        string `json:"rfc"`
	Name       string `json:"name"`
	TaxRegime  string `json:"tax_regime"`
	CFDIUse    string `json:"cfdi_use,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// ConceptResponse concepto en respuestas.
type ConceptResponse struct {
	ProductCode string          `json:"product_code"`
	UnitCode    string          `json:"unit_code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	Amount      decimal.Decimal `json:"amount"`
	Discount    decimal.Decimal `json:"discount"`
	Taxes       []TaxResponse   `json:"taxes,omitempty"`
}

// TaxResponse impuesto en respuestas.
type TaxResponse struct {
	Kind       string          `json:"kind"`
	Tax        string          `json:"tax"`
	FactorType string          `json:"factor_type"`
	Rate       decimal.Decimal `json:"rate"`
	Base       decimal.Decimal `json:"base"`
	Amount     decimal.Decimal `json:"amount"`
}

// InvoiceResponse CFDI para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID                   string            `json:"id"`
	FiscalID             string            `json:"fiscal_id,omitempty"`
	TenantID             string            `json:"tenant_id"`
	LocationID           string            `json:"location_id,omitempty"`
	OrderRef             string            `json:"order_ref,omitempty"`
	Series               string            `json:"series,omitempty"`
	Folio                int64             `json:"folio,omitempty"`
	Type                 string            `json:"type"`
	PaymentMethod        string            `json:"payment_method"`
	PaymentForm          string            `json:"payment_form"`
	Currency             string            `json:"currency"`
	PlaceOfIssue         string            `json:"place_of_issue"`
	Issuer               PartyResponse     `json:"issuer"`
	Receptor             PartyResponse     `json:"receptor"`
	Concepts             []ConceptResponse `json:"concepts"`
	Subtotal             decimal.Decimal   `json:"subtotal"`
	Discount             decimal.Decimal   `json:"discount"`
	TotalTransferred     decimal.Decimal   `json:"total_transferred"`
	TotalWithheld        decimal.Decimal   `json:"total_withheld"`
	Total                decimal.Decimal   `json:"total"`
	Status               string            `json:"status"` // draft|stamped|cancelled|error
	CertificateNumber    string            `json:"certificate_number,omitempty"`
	OriginalStringDigest string            `json:"original_string_digest,omitempty"`
	StampedAt            *time.Time        `json:"stamped_at,omitempty"`
	DocumentRef          string            `json:"document_ref,omitempty"`
	FailureReason        string            `json:"failure_reason,omitempty"`
	CancellationReason   string            `json:"cancellation_reason,omitempty"`
	ReplacementFiscalID  string            `json:"replacement_fiscal_id,omitempty"`
	CancelledAt          *time.Time        `json:"cancelled_at,omitempty"`
	RetriedFrom          string            `json:"retried_from,omitempty"`
	Note                 string            `json:"note,omitempty"`
	IssuedAt             time.Time         `json:"issued_at"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// InvoiceListResponse página de comprobantes.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceFilterRequest filtros de GET /api/invoices y /api/invoices/stats.
// Fechas en formato YYYY-MM-DD o RFC3339.
type InvoiceFilterRequest struct {
	PageRequest
	Status     string `query:"status"`
	LocationID string `query:"location_id"`
	StartDate  string `query:"start_date"`
	EndDate    string `query:"end_date"`
}

// StampResponse resultado de POST /api/invoices/:id/stamp.
type StampResponse struct {
	ID                   string    `json:"id"`
	FiscalID             string    `json:"fiscal_id"`
	Status               string    `json:"status"`
	Seal                 string    `json:"seal"`
	CertificateNumber    string    `json:"certificate_number"`
	OriginalStringDigest string    `json:"original_string_digest"`
	SATCertificateNumber string    `json:"sat_certificate_number"`
	StampedAt            time.Time `json:"stamped_at"`
	DocumentRef          string    `json:"document_ref,omitempty"`
}

// CancelInvoiceRequest body para POST /api/invoices/uuid/:uuid/cancel.
// Reason acepta la clave (01-04) o su alias en inglés ("issued with errors", ...).
type CancelInvoiceRequest struct {
	Reason              string `json:"reason"`
	ReplacementFiscalID string `json:"replacement_fiscal_id,omitempty"`
}

// CancelResponse resultado de la cancelación.
type CancelResponse struct {
	ID                 string    `json:"id"`
	FiscalID           string    `json:"fiscal_id"`
	Status             string    `json:"status"`
	CancellationReason string    `json:"cancellation_reason"`
	CancelledAt        time.Time `json:"cancelled_at"`
}

// InvoiceStatsResponse conteos y sumas (las sumas solo incluyen timbrados).
type InvoiceStatsResponse struct {
	Count            int             `json:"count"`
	ByStatus         map[string]int  `json:"by_status"`
	ByType           map[string]int  `json:"by_type"`
	ByPaymentForm    map[string]int  `json:"by_payment_form"`
	StampedCount     int             `json:"stamped_count"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Discount         decimal.Decimal `json:"discount"`
	TotalTransferred decimal.Decimal `json:"total_transferred"`
	TotalWithheld    decimal.Decimal `json:"total_withheld"`
	Total            decimal.Decimal `json:"total"`
}

// ValidateRFCResponse resultado de GET /api/rfc/:rfc/validate.
type ValidateRFCResponse struct {
	RFC   string `json:"rfc"`
	Valid bool   `json:"valid"`
}
