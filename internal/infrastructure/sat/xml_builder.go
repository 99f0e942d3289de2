package sat

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	pkgsat "github.com/jhoicas/cfdi-api/pkg/sat"
)

// BuildOptions datos que no viven en el documento: fecha formateada y sello del emisor.
type BuildOptions struct {
	Date              string // Fecha en DateLayout
	Seal              string
	CertificateNumber string
	Certificate       string // Certificado en Base64 (opcional)
}

// XMLBuilder construye el cfdi:Comprobante 4.0 (sin timbre).
// Mismo documento y mismas opciones producen exactamente los mismos bytes.
type XMLBuilder struct{}

// NewXMLBuilder crea el builder.
func NewXMLBuilder() *XMLBuilder {
	return &XMLBuilder{}
}

// attr par nombre/valor; los valores vacíos se omiten al escribir.
type attr struct{ name, value string }

// Build genera el XML del comprobante.
func (b *XMLBuilder) Build(inv *entity.Invoice, opts BuildOptions) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("sat: comprobante nulo")
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if err := enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}); err != nil {
		return nil, err
	}

	root := start("cfdi:Comprobante", comprobanteAttrs(inv, opts)...)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ---- Emisor / Receptor
	writeEmpty(enc, "cfdi:Emisor",
		attr{"Rfc", inv.Issuer.RFC},
		attr{"Nombre", inv.Issuer.Name},
		attr{"RegimenFiscal", inv.Issuer.TaxRegime},
	)
	writeEmpty(enc, "cfdi:Receptor",
		attr{"Rfc", inv.Receptor.RFC},
		attr{"Nombre", inv.Receptor.Name},
		attr{"DomicilioFiscalReceptor", inv.Receptor.PostalCode},
		attr{"RegimenFiscalReceptor", inv.Receptor.TaxRegime},
		attr{"UsoCFDI", inv.Receptor.CFDIUse},
	)

	// ---- Conceptos
	conceptos := start("cfdi:Conceptos")
	_ = enc.EncodeToken(conceptos)
	for _, c := range inv.Concepts {
		writeConcept(enc, c)
	}
	_ = enc.EncodeToken(conceptos.End())

	// ---- Impuestos del comprobante
	writeTaxSummary(enc, inv)

	// ---- Complemento: el timbre se inyecta después de sellar
	comp := start("cfdi:Complemento")
	_ = enc.EncodeToken(comp)
	_ = enc.EncodeToken(comp.End())

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func comprobanteAttrs(inv *entity.Invoice, opts BuildOptions) []attr {
	attrs := []attr{
		{"xmlns:cfdi", NsCFDI},
		{"xmlns:xsi", NsXsi},
		{"xsi:schemaLocation", schemaLocationCFDI},
		{"Version", CFDIVersion},
		{"Serie", inv.Series},
		{"Folio", folio(inv)},
		{"Fecha", opts.Date},
		{"Sello", opts.Seal},
	}
	if carriesPayment(inv) {
		attrs = append(attrs, attr{"FormaPago", inv.PaymentForm})
	}
	attrs = append(attrs,
		attr{"NoCertificado", opts.CertificateNumber},
		attr{"Certificado", opts.Certificate},
		attr{"SubTotal", money(inv.Subtotal)},
	)
	if inv.Discount.IsPositive() {
		attrs = append(attrs, attr{"Descuento", money(inv.Discount)})
	}
	attrs = append(attrs,
		attr{"Moneda", currency(inv)},
		attr{"Total", money(inv.Total)},
		attr{"TipoDeComprobante", inv.Type},
		attr{"Exportacion", exportNotApplicable},
	)
	if carriesPayment(inv) {
		attrs = append(attrs, attr{"MetodoPago", inv.PaymentMethod})
	}
	attrs = append(attrs, attr{"LugarExpedicion", inv.PlaceOfIssue})
	return attrs
}

func writeConcept(enc *xml.Encoder, c entity.Concept) {
	attrs := []attr{
		{"ClaveProdServ", c.ProductCode},
		{"Cantidad", c.Quantity.String()},
		{"ClaveUnidad", c.UnitCode},
		{"Descripcion", c.Description},
		{"ValorUnitario", money(c.UnitValue)},
		{"Importe", money(c.Amount)},
	}
	if c.Discount.IsPositive() {
		attrs = append(attrs, attr{"Descuento", money(c.Discount)})
	}
	attrs = append(attrs, attr{"ObjetoImp", objectTax(c)})

	el := start("cfdi:Concepto", attrs...)
	_ = enc.EncodeToken(el)
	if len(c.Taxes) > 0 {
		imp := start("cfdi:Impuestos")
		_ = enc.EncodeToken(imp)
		writeConceptTaxes(enc, c.Taxes, entity.TaxKindTransferred, "cfdi:Traslados", "cfdi:Traslado")
		writeConceptTaxes(enc, c.Taxes, entity.TaxKindWithheld, "cfdi:Retenciones", "cfdi:Retencion")
		_ = enc.EncodeToken(imp.End())
	}
	_ = enc.EncodeToken(el.End())
}

func writeConceptTaxes(enc *xml.Encoder, taxes []entity.ConceptTax, kind, group, item string) {
	var selected []entity.ConceptTax
	for _, t := range taxes {
		if t.Kind == kind {
			selected = append(selected, t)
		}
	}
	if len(selected) == 0 {
		return
	}
	g := start(group)
	_ = enc.EncodeToken(g)
	for _, t := range selected {
		writeEmpty(enc, item, taxAttrs(t)...)
	}
	_ = enc.EncodeToken(g.End())
}

func taxAttrs(t entity.ConceptTax) []attr {
	attrs := []attr{
		{"Base", money(t.Base)},
		{"Impuesto", t.Tax},
		{"TipoFactor", t.FactorType},
	}
	if t.FactorType != pkgsat.FactorExempt {
		attrs = append(attrs, attr{"TasaOCuota", rate(t.Rate)}, attr{"Importe", money(t.Amount)})
	}
	return attrs
}

// taxKey agrupa traslados por impuesto, factor y tasa (nodo cfdi:Impuestos del comprobante).
type taxKey struct {
	tax, factor, rate string
}

type taxSum struct {
	base, amount decimal.Decimal
}

func writeTaxSummary(enc *xml.Encoder, inv *entity.Invoice) {
	transferred := map[taxKey]*taxSum{}
	withheld := map[string]decimal.Decimal{}
	var hasTransferred bool
	for _, c := range inv.Concepts {
		for _, t := range c.Taxes {
			switch t.Kind {
			case entity.TaxKindTransferred:
				hasTransferred = true
				k := taxKey{t.Tax, t.FactorType, rate(t.Rate)}
				if t.FactorType == pkgsat.FactorExempt {
					k.rate = ""
				}
				s, ok := transferred[k]
				if !ok {
					s = &taxSum{}
					transferred[k] = s
				}
				s.base = s.base.Add(t.Base)
				s.amount = s.amount.Add(t.Amount)
			case entity.TaxKindWithheld:
				withheld[t.Tax] = withheld[t.Tax].Add(t.Amount)
			}
		}
	}
	if !hasTransferred && len(withheld) == 0 {
		return
	}

	var attrs []attr
	if len(withheld) > 0 {
		attrs = append(attrs, attr{"TotalImpuestosRetenidos", money(inv.TotalWithheld)})
	}
	if hasTransferred {
		attrs = append(attrs, attr{"TotalImpuestosTrasladados", money(inv.TotalTransferred)})
	}
	imp := start("cfdi:Impuestos", attrs...)
	_ = enc.EncodeToken(imp)

	if len(withheld) > 0 {
		codes := make([]string, 0, len(withheld))
		for code := range withheld {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		g := start("cfdi:Retenciones")
		_ = enc.EncodeToken(g)
		for _, code := range codes {
			writeEmpty(enc, "cfdi:Retencion", attr{"Impuesto", code}, attr{"Importe", money(withheld[code])})
		}
		_ = enc.EncodeToken(g.End())
	}

	if hasTransferred {
		keys := make([]taxKey, 0, len(transferred))
		for k := range transferred {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].tax != keys[j].tax {
				return keys[i].tax < keys[j].tax
			}
			if keys[i].factor != keys[j].factor {
				return keys[i].factor < keys[j].factor
			}
			return keys[i].rate < keys[j].rate
		})
		g := start("cfdi:Traslados")
		_ = enc.EncodeToken(g)
		for _, k := range keys {
			s := transferred[k]
			attrs := []attr{{"Base", money(s.base)}, {"Impuesto", k.tax}, {"TipoFactor", k.factor}}
			if k.factor != pkgsat.FactorExempt {
				attrs = append(attrs, attr{"TasaOCuota", k.rate}, attr{"Importe", money(s.amount)})
			}
			writeEmpty(enc, "cfdi:Traslado", attrs...)
		}
		_ = enc.EncodeToken(g.End())
	}

	_ = enc.EncodeToken(imp.End())
}

// ── helpers ───────────────────────────────────────────────────────────────────

func start(name string, attrs ...attr) xml.StartElement {
	el := xml.StartElement{Name: xml.Name{Local: name}}
	for _, a := range attrs {
		if a.value == "" {
			continue
		}
		el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: a.name}, Value: a.value})
	}
	return el
}

func writeEmpty(enc *xml.Encoder, name string, attrs ...attr) {
	el := start(name, attrs...)
	_ = enc.EncodeToken(el)
	_ = enc.EncodeToken(el.End())
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func rate(d decimal.Decimal) string {
	return d.StringFixed(6)
}

func folio(inv *entity.Invoice) string {
	if inv.Folio <= 0 {
		return ""
	}
	return strconv.FormatInt(inv.Folio, 10)
}

func currency(inv *entity.Invoice) string {
	if inv.Currency == "" {
		return "MXN"
	}
	return inv.Currency
}

// carriesPayment: traslados y complementos de pago no llevan FormaPago ni MetodoPago.
func carriesPayment(inv *entity.Invoice) bool {
	return inv.Type == pkgsat.TypeIncome || inv.Type == pkgsat.TypeExpense
}

func objectTax(c entity.Concept) string {
	if len(c.Taxes) == 0 {
		return pkgsat.ObjectNotTaxable
	}
	return pkgsat.ObjectTaxable
}
