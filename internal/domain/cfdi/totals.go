// Package cfdi contiene las reglas de dominio del CFDI 4.0: cálculo de totales,
// validación del documento y la máquina de estados de emisión.
package cfdi

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// Decimales de los importes del comprobante (MXN).
const moneyPlaces int32 = 2

// Totals totales derivados de los conceptos.
type Totals struct {
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	TotalTransferred decimal.Decimal
	TotalWithheld    decimal.Decimal
	Total            decimal.Decimal
}

// Round redondeo monetario: 2 decimales, mitad alejándose de cero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// CalculateTotals suma importes, descuentos e impuestos de los conceptos.
// Cada componente se redondea antes de calcular el total, y el total se redondea de nuevo:
//
//	Total = Subtotal - Descuento + Trasladados - Retenidos
//
// Función pura: mismas entradas, mismos totales.
func CalculateTotals(concepts []entity.Concept) Totals {
	var sub, disc, tr, wh decimal.Decimal
	for _, c := range concepts {
		sub = sub.Add(c.Amount)
		disc = disc.Add(c.Discount)
		for _, t := range c.Taxes {
			switch t.Kind {
			case entity.TaxKindTransferred:
				tr = tr.Add(t.Amount)
			case entity.TaxKindWithheld:
				wh = wh.Add(t.Amount)
			}
		}
	}
	out := Totals{
		Subtotal:         Round(sub),
		Discount:         Round(disc),
		TotalTransferred: Round(tr),
		TotalWithheld:    Round(wh),
	}
	out.Total = Round(out.Subtotal.Sub(out.Discount).Add(out.TotalTransferred).Sub(out.TotalWithheld))
	return out
}

// Apply copia los totales en la cabecera del comprobante.
func (t Totals) Apply(inv *entity.Invoice) {
	inv.Subtotal = t.Subtotal
	inv.Discount = t.Discount
	inv.TotalTransferred = t.TotalTransferred
	inv.TotalWithheld = t.TotalWithheld
	inv.Total = t.Total
}

// TaxBase base gravable por defecto de un concepto: importe menos descuento.
// Una cuota se aplica por unidad, así que su base es la cantidad.
func TaxBase(factorType string, c entity.Concept) decimal.Decimal {
	if factorType == sat.FactorQuota {
		return c.Quantity
	}
	return c.Amount.Sub(c.Discount)
}

// TaxAmount importe de un impuesto a tasa o cuota. Exento siempre es cero.
func TaxAmount(factorType string, base, rate decimal.Decimal) decimal.Decimal {
	if factorType == sat.FactorExempt {
		return decimal.Zero
	}
	return Round(base.Mul(rate))
}
