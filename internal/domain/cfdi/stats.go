package cfdi

import "github.com/jhoicas/cfdi-api/internal/domain/entity"

// Summarize cuenta todos los documentos por estado, tipo y forma de pago, y suma
// importes solo de los timbrados: borradores, errores y cancelados no tienen efecto fiscal.
func Summarize(invoices []*entity.Invoice) *entity.InvoiceStats {
	st := entity.NewInvoiceStats()
	for _, inv := range invoices {
		st.Count++
		st.ByStatus[inv.Status]++
		st.ByType[inv.Type]++
		st.ByPaymentForm[inv.PaymentForm]++
		if inv.Status != entity.InvoiceStatusStamped {
			continue
		}
		st.StampedCount++
		st.Subtotal = st.Subtotal.Add(inv.Subtotal)
		st.Discount = st.Discount.Add(inv.Discount)
		st.TotalTransferred = st.TotalTransferred.Add(inv.TotalTransferred)
		st.TotalWithheld = st.TotalWithheld.Add(inv.TotalWithheld)
		st.Total = st.Total.Add(inv.Total)
	}
	return st
}

// Matches indica si el documento cumple el filtro (sin paginación).
func Matches(inv *entity.Invoice, f entity.InvoiceFilter) bool {
	if f.TenantID != "" && inv.TenantID != f.TenantID {
		return false
	}
	if f.LocationID != "" && inv.LocationID != f.LocationID {
		return false
	}
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	if f.From != nil && inv.IssuedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && inv.IssuedAt.After(*f.To) {
		return false
	}
	return true
}
