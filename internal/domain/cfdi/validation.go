package cfdi

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// Mensajes con contrato estable (los consumen los colaboradores).
const (
	MsgInvalidReceptorRFC = "invalid receptor tax id"
	MsgNoConcepts         = "at least one concept is required"
)

// amountTolerance diferencia máxima entre Importe y Cantidad × ValorUnitario.
var amountTolerance = decimal.RequireFromString("0.01")

// Result veredicto de validación; Errors trae todas las violaciones, no solo la primera.
type Result struct {
	Valid  bool
	Errors []string
}

func (r *Result) add(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// CheckConcept valida un concepto de forma aislada. index es 1-based y se usa en los mensajes.
func CheckConcept(index int, c entity.Concept) []string {
	var problems []string
	p := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf("concept %d: ", index)+fmt.Sprintf(format, args...))
	}

	if !c.Quantity.IsPositive() {
		p("quantity must be greater than zero")
	}
	if c.UnitValue.IsNegative() {
		p("unit value must not be negative")
	}
	expected := c.Quantity.Mul(c.UnitValue)
	if c.Amount.Sub(expected).Abs().GreaterThan(amountTolerance) {
		p("amount %s does not match quantity x unit value (%s)", c.Amount.String(), expected.String())
	}
	if c.Discount.IsNegative() {
		p("discount must not be negative")
	} else if c.Discount.GreaterThan(c.Amount) {
		p("discount exceeds amount")
	}
	if strings.TrimSpace(c.Description) == "" {
		p("description is required")
	}
	for j, t := range c.Taxes {
		for _, msg := range checkTax(t) {
			p("tax %d: %s", j+1, msg)
		}
	}
	return problems
}

func checkTax(t entity.ConceptTax) []string {
	var out []string
	if t.Kind != entity.TaxKindTransferred && t.Kind != entity.TaxKindWithheld {
		out = append(out, fmt.Sprintf("unknown tax kind %q", t.Kind))
	}
	if !sat.ValidTaxCodes[t.Tax] {
		out = append(out, fmt.Sprintf("unknown tax code %q", t.Tax))
	}
	if !sat.ValidFactorTypes[t.FactorType] {
		out = append(out, fmt.Sprintf("unknown factor type %q", t.FactorType))
	}
	if t.FactorType == sat.FactorExempt && t.Kind == entity.TaxKindWithheld {
		out = append(out, "withheld taxes cannot be exempt")
	}
	if t.FactorType == sat.FactorExempt && !t.Amount.IsZero() {
		out = append(out, "exempt taxes carry no amount")
	}
	if t.Rate.IsNegative() {
		out = append(out, "rate must not be negative")
	}
	if t.Base.IsNegative() {
		out = append(out, "base must not be negative")
	}
	if t.Amount.IsNegative() {
		out = append(out, "amount must not be negative")
	}
	return out
}

// ValidateDocument valida un comprobante aún no persistido. Nunca falla:
// devuelve siempre un Result con todas las violaciones encontradas.
func ValidateDocument(inv *entity.Invoice) Result {
	var r Result
	if inv == nil {
		r.add("document is required")
		return r
	}

	if !sat.ValidateRFC(inv.Issuer.RFC) {
		r.add("invalid issuer tax id")
	}
	if !sat.ValidateRFC(inv.Receptor.RFC) {
		r.add(MsgInvalidReceptorRFC)
	}
	if strings.TrimSpace(inv.Receptor.Name) == "" {
		r.add("receptor name is required")
	}
	if !sat.ValidCFDIUses[inv.Receptor.CFDIUse] {
		r.add("invalid receptor cfdi use %q", inv.Receptor.CFDIUse)
	}
	if !sat.ValidTaxRegimes[inv.Receptor.TaxRegime] {
		r.add("invalid receptor tax regime %q", inv.Receptor.TaxRegime)
	} else if sat.ValidateRFC(inv.Receptor.RFC) && !sat.RegimeAppliesTo(inv.Receptor.TaxRegime, inv.Receptor.RFC) {
		r.add("receptor tax regime %q does not apply to tax id %s", inv.Receptor.TaxRegime, inv.Receptor.RFC)
	}
	// RFC genérico: régimen 616 y uso S01
	if sat.IsGenericRFC(inv.Receptor.RFC) &&
		(inv.Receptor.TaxRegime != sat.RegimeNoTaxObligations || inv.Receptor.CFDIUse != sat.UseNoTaxEffects) {
		r.add("generic receptor tax id requires regime %s and cfdi use %s", sat.RegimeNoTaxObligations, sat.UseNoTaxEffects)
	}
	if !sat.ValidComprobanteTypes[inv.Type] {
		r.add("invalid comprobante type %q", inv.Type)
	}
	if !sat.ValidPaymentMethods[inv.PaymentMethod] {
		r.add("invalid payment method %q", inv.PaymentMethod)
	}
	if !sat.ValidPaymentForms[inv.PaymentForm] {
		r.add("invalid payment form %q", inv.PaymentForm)
	}
	if inv.PaymentMethod == sat.PaymentMethodPPD && inv.PaymentForm != sat.PaymentFormToBeDefined {
		r.add("payment method PPD requires payment form 99")
	}

	if len(inv.Concepts) == 0 {
		r.add(MsgNoConcepts)
	}
	for i, c := range inv.Concepts {
		r.Errors = append(r.Errors, CheckConcept(i+1, c)...)
	}

	r.Valid = len(r.Errors) == 0
	return r
}
