// Package pdf implementa la representación impresa del CFDI 4.0.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + RFC + régimen  │  Serie-Folio + UUID       │
//	│  RECEPTOR: Nombre + RFC + uso CFDI + CP                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Clave | Descripción | V.Unit | Desc | Importe │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / Traslados / Retenciones     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TIMBRE: QR SAT + sellos + certificados                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"net/url"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

var _ billing.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 104, Blue: 71}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// Generate arma el PDF del comprobante timbrado (o cancelado, con leyenda).
func (g *MarotoPDFGenerator) Generate(inv *entity.Invoice) ([]byte, error) {
	if inv == nil || inv.FiscalID == "" {
		return nil, fmt.Errorf("pdf: el comprobante no está timbrado")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("CFDI "+inv.FiscalID, true).
		WithAuthor(inv.Issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv))
	if inv.Status == entity.InvoiceStatusCancelled {
		m.AddRows(cancelledRow(inv))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(conceptRows(inv.Concepts)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(stampRows(inv)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// VerificationLink URL del QR de verificación del SAT:
// id=UUID, re=RFC emisor, rr=RFC receptor, tt=total y fe=últimos 8 caracteres del sello.
func VerificationLink(inv *entity.Invoice) string {
	return fmt.Sprintf("%s?id=%s&re=%s&rr=%s&tt=%s&fe=%s", sat.VerificationURL,
		url.QueryEscape(inv.FiscalID),
		url.QueryEscape(inv.Issuer.RFC),
		url.QueryEscape(inv.Receptor.RFC),
		inv.Total.StringFixed(6),
		url.QueryEscape(sealTail(inv.Seal)),
	)
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(inv *entity.Invoice) core.Row {
	folio := strings.TrimSpace(fmt.Sprintf("%s-%d", inv.Series, inv.Folio))
	if inv.Folio == 0 {
		folio = inv.Series
	}
	return row.New(22).Add(
		col.New(7).Add(
			text.New(inv.Issuer.Name, props.Text{Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1}),
			text.New("RFC: "+inv.Issuer.RFC, props.Text{Size: 9, Top: 8, Color: colorGray}),
			text.New(fmt.Sprintf("Régimen fiscal: %s   |   Lugar de expedición: %s", inv.Issuer.TaxRegime, inv.PlaceOfIssue),
				props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(comprobanteLabel(inv.Type), props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(folio, "Sin serie"), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6}),
			text.New("Folio fiscal: "+inv.FiscalID, props.Text{Size: 7, Align: align.Right, Top: 13, Color: colorGray}),
			text.New("Emisión: "+inv.IssuedAt.Format("2006-01-02 15:04:05"), props.Text{Size: 7, Align: align.Right, Top: 17, Color: colorGray}),
		),
	)
}

func cancelledRow(inv *entity.Invoice) core.Row {
	msg := "CFDI CANCELADO"
	if reason := sat.CancellationReason(inv.CancellationReason).Description(); reason != "" {
		msg += " - " + reason
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(msg, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Center, Color: colorRed, Top: 1}),
	))
}

func receptorRow(inv *entity.Invoice) core.Row {
	return row.New(16).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(inv.Receptor.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("RFC: %s   |   Uso CFDI: %s   |   Régimen: %s   |   CP: %s",
				inv.Receptor.RFC, inv.Receptor.CFDIUse, inv.Receptor.TaxRegime, nonEmpty(inv.Receptor.PostalCode, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Clave", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("V. Unitario", 2, align.Right),
		h("Descuento", 1, align.Right),
		h("Importe", 2, align.Right),
	)
}

func conceptRows(concepts []entity.Concept) []core.Row {
	rows := make([]core.Row, 0, len(concepts))
	for _, c := range concepts {
		cell := func(a align.Type) props.Text {
			return props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}
		}
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(c.Quantity.String(), cell(align.Center))),
			col.New(2).Add(text.New(c.ProductCode+" / "+c.UnitCode, cell(align.Left))),
			col.New(4).Add(text.New(c.Description, cell(align.Left))),
			col.New(2).Add(text.New(money(c.UnitValue), cell(align.Right))),
			col.New(1).Add(text.New(money(c.Discount), cell(align.Right))),
			col.New(2).Add(text.New(money(c.Amount), cell(align.Right))),
		))
	}
	return rows
}

func totalsRow(inv *entity.Invoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: top})
	}
	return row.New(30).Add(
		col.New(6).Add(
			text.New(fmt.Sprintf("Forma de pago: %s   |   Método de pago: %s   |   Moneda: %s",
				nonEmpty(inv.PaymentForm, "-"), nonEmpty(inv.PaymentMethod, "-"), inv.Currency),
				props.Text{Size: 7, Top: 2, Color: colorGray}),
		),
		col.New(3).Add(
			label("Subtotal:"),
			text.New("Descuento:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			text.New("Impuestos trasladados:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 10}),
			text.New("Impuestos retenidos:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 15}),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 21}),
		),
		col.New(3).Add(
			value(money(inv.Subtotal), 0),
			value(money(inv.Discount), 5),
			value(money(inv.TotalTransferred), 10),
			value(money(inv.TotalWithheld), 15),
			grand(money(inv.Total), 21),
		),
	)
}

func stampRows(inv *entity.Invoice) []core.Row {
	small := props.Text{Size: 6, Color: colorGray, Top: 0.5, Left: 2}
	rows := []core.Row{
		row.New(50).Add(
			col.New(4).Add(code.NewQr(VerificationLink(inv), props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(
				text.New("Folio fiscal (UUID): "+inv.FiscalID, props.Text{Size: 8, Top: 2, Left: 3}),
				text.New("No. certificado emisor: "+inv.CertificateNumber, props.Text{Size: 8, Top: 8, Left: 3}),
				text.New("No. certificado SAT: "+inv.SATCertificateNumber, props.Text{Size: 8, Top: 14, Left: 3}),
				text.New("Fecha de certificación: "+stampedAt(inv), props.Text{Size: 8, Top: 20, Left: 3}),
				text.New("Este documento es una representación impresa de un CFDI", props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 32, Left: 3, Color: colorPrimary,
				}),
			),
		),
	}
	for _, block := range []struct{ title, value string }{
		{"Sello digital del CFDI:", inv.Seal},
		{"Sello digital del SAT:", inv.SATSeal},
	} {
		if block.value == "" {
			continue
		}
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(block.title, props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
		)))
		for _, chunk := range splitEvery(block.value, 110) {
			rows = append(rows, row.New(3.5).Add(col.New(12).Add(text.New(chunk, small))))
		}
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func comprobanteLabel(t string) string {
	switch t {
	case sat.TypeIncome:
		return "CFDI DE INGRESO"
	case sat.TypeExpense:
		return "CFDI DE EGRESO"
	case sat.TypePayment:
		return "CFDI DE PAGO"
	case sat.TypeTransfer:
		return "CFDI DE TRASLADO"
	default:
		return "CFDI"
	}
}

func stampedAt(inv *entity.Invoice) string {
	if inv.StampedAt == nil {
		return "-"
	}
	return inv.StampedAt.Format("2006-01-02 15:04:05")
}

func sealTail(seal string) string {
	if len(seal) <= 8 {
		return seal
	}
	return seal[len(seal)-8:]
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money formatea con separador de miles: 1234567.5 -> $1,234,567.50
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + "$" + string(buf) + "." + frac
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
