package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida del CFDI.
const (
	InvoiceStatusDraft     = "draft"     // Creado y validado, sin folio fiscal
	InvoiceStatusStamped   = "stamped"   // Timbrado por el PAC (UUID asignado)
	InvoiceStatusCancelled = "cancelled" // Cancelado ante el SAT
	InvoiceStatusError     = "error"     // Falló el timbrado
)

// Clases de impuesto por concepto.
const (
	TaxKindTransferred = "transferred" // Traslado
	TaxKindWithheld    = "withheld"    // Retención
)

// Party datos fiscales de emisor o receptor.
type Party struct {
	RFC        string
	Name       string
	TaxRegime  string // c_RegimenFiscal
	CFDIUse    string // c_UsoCFDI (solo receptor)
	PostalCode string // DomicilioFiscalReceptor / LugarExpedicion
}

// ConceptTax impuesto trasladado o retenido de un concepto.
type ConceptTax struct {
	Kind       string // TaxKindTransferred | TaxKindWithheld
	Tax        string // c_Impuesto: 001 ISR, 002 IVA, 003 IEPS
	FactorType string // Tasa | Cuota | Exento
	Rate       decimal.Decimal
	Base       decimal.Decimal
	Amount     decimal.Decimal
}

// Concept línea (concepto) del comprobante.
type Concept struct {
	ProductCode string // c_ClaveProdServ
	UnitCode    string // c_ClaveUnidad
	Description string
	Quantity    decimal.Decimal
	UnitValue   decimal.Decimal
	Amount      decimal.Decimal // Importe declarado
	Discount    decimal.Decimal
	Taxes       []ConceptTax
}

// Invoice representa un CFDI 4.0 y su estado de emisión.
type Invoice struct {
	ID         string
	TenantID   string
	LocationID string
	OrderRef   string // Referencia del pedido en el sistema colaborador
	Series     string
	Folio      int64

	Type          string // c_TipoDeComprobante
	PaymentMethod string // c_MetodoPago
	PaymentForm   string // c_FormaPago
	Currency      string
	PlaceOfIssue  string

	Issuer   Party
	Receptor Party
	Concepts []Concept

	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	TotalTransferred decimal.Decimal
	TotalWithheld    decimal.Decimal
	Total            decimal.Decimal

	Status string

	// Artefactos de certificación (solo en stamped/cancelled).
	FiscalID             string // UUID del Timbre Fiscal Digital
	XML                  string
	Seal                 string // Sello del emisor
	CertificateNumber    string
	OriginalStringDigest string
	SATSeal              string
	SATCertificateNumber string
	StampedAt            *time.Time
	DocumentRef          string // Llave del XML en el archivo de objetos

	FailureReason string

	CancellationReason  string
	ReplacementFiscalID string
	CancelledAt         *time.Time

	Note        string
	RetriedFrom string
	IssuedAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// Clone copia profunda; los consumidores del almacén nunca comparten slices.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	if inv.Concepts != nil {
		c.Concepts = make([]Concept, len(inv.Concepts))
		for i, con := range inv.Concepts {
			c.Concepts[i] = con
			if con.Taxes != nil {
				c.Concepts[i].Taxes = append([]ConceptTax(nil), con.Taxes...)
			}
		}
	}
	if inv.StampedAt != nil {
		t := *inv.StampedAt
		c.StampedAt = &t
	}
	if inv.CancelledAt != nil {
		t := *inv.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

// IsFinal indica si el contenido fiscal ya no puede modificarse.
func (inv *Invoice) IsFinal() bool {
	return inv.Status == InvoiceStatusStamped || inv.Status == InvoiceStatusCancelled
}

// InvoiceFilter filtros de listado y estadísticas.
type InvoiceFilter struct {
	TenantID   string
	LocationID string
	Status     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// InvoiceStats conteos por clasificación y sumas fiscales (solo timbrados).
type InvoiceStats struct {
	Count            int
	ByStatus         map[string]int
	ByType           map[string]int
	ByPaymentForm    map[string]int
	StampedCount     int
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	TotalTransferred decimal.Decimal
	TotalWithheld    decimal.Decimal
	Total            decimal.Decimal
}

// NewInvoiceStats estadísticas vacías con mapas inicializados.
func NewInvoiceStats() *InvoiceStats {
	return &InvoiceStats{
		ByStatus:      map[string]int{},
		ByType:        map[string]int{},
		ByPaymentForm: map[string]int{},
	}
}
