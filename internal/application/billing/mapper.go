package billing

import (
	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	out := &dto.InvoiceResponse{
		ID:                   inv.ID,
		FiscalID:             inv.FiscalID,
		TenantID:             inv.TenantID,
		LocationID:           inv.LocationID,
		OrderRef:             inv.OrderRef,
		Series:               inv.Series,
		Folio:                inv.Folio,
		Type:                 inv.Type,
		PaymentMethod:        inv.PaymentMethod,
		PaymentForm:          inv.PaymentForm,
		Currency:             inv.Currency,
		PlaceOfIssue:         inv.PlaceOfIssue,
		Issuer:               toPartyResponse(inv.Issuer),
		Receptor:             toPartyResponse(inv.Receptor),
		Concepts:             make([]dto.ConceptResponse, 0, len(inv.Concepts)),
		Subtotal:             inv.Subtotal,
		Discount:             inv.Discount,
		TotalTransferred:     inv.TotalTransferred,
		TotalWithheld:        inv.TotalWithheld,
		Total:                inv.Total,
		Status:               inv.Status,
		CertificateNumber:    inv.CertificateNumber,
		OriginalStringDigest: inv.OriginalStringDigest,
		StampedAt:            inv.StampedAt,
		DocumentRef:          inv.DocumentRef,
		FailureReason:        inv.FailureReason,
		CancellationReason:   inv.CancellationReason,
		ReplacementFiscalID:  inv.ReplacementFiscalID,
		CancelledAt:          inv.CancelledAt,
		RetriedFrom:          inv.RetriedFrom,
		Note:                 inv.Note,
		IssuedAt:             inv.IssuedAt,
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
	}
	for _, c := range inv.Concepts {
		cr := dto.ConceptResponse{
			ProductCode: c.ProductCode,
			UnitCode:    c.UnitCode,
			Description: c.Description,
			Quantity:    c.Quantity,
			UnitValue:   c.UnitValue,
			Amount:      c.Amount,
			Discount:    c.Discount,
		}
		for _, t := range c.Taxes {
			cr.Taxes = append(cr.Taxes, dto.TaxResponse{
				Kind:       t.Kind,
				Tax:        t.Tax,
				FactorType: t.FactorType,
				Rate:       t.Rate,
				Base:       t.Base,
				Amount:     t.Amount,
			})
		}
		out.Concepts = append(out.Concepts, cr)
	}
	return out
}

func toPartyResponse(p entity.Party) dto.PartyResponse {
	return dto.PartyResponse{
		RFC:        p.RFC,
		Name:       p.Name,
		TaxRegime:  p.TaxRegime,
		CFDIUse:    p.CFDIUse,
		PostalCode: p.PostalCode,
	}
}

func toStatsResponse(s *entity.InvoiceStats) *dto.InvoiceStatsResponse {
	return &dto.InvoiceStatsResponse{
		Count:            s.Count,
		ByStatus:         s.ByStatus,
		ByType:           s.ByType,
		ByPaymentForm:    s.ByPaymentForm,
		StampedCount:     s.StampedCount,
		Subtotal:         s.Subtotal,
		Discount:         s.Discount,
		TotalTransferred: s.TotalTransferred,
		TotalWithheld:    s.TotalWithheld,
		Total:            s.Total,
	}
}
