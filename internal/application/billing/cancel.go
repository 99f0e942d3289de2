package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// CancelInvoice cancela un CFDI timbrado ante el PAC.
// Motivo 01 exige el UUID del comprobante que lo sustituye.
// Si el PAC rechaza la cancelación el documento sigue timbrado y se devuelve CertificationError.
func (uc *InvoiceUseCase) CancelInvoice(ctx context.Context, tenantID, fiscalID string, in dto.CancelInvoiceRequest) (*dto.CancelResponse, error) {
	reason, ok := sat.ParseCancellationReason(in.Reason)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid cancellation reason %q", in.Reason))
	}
	replacement := strings.ToUpper(strings.TrimSpace(in.ReplacementFiscalID))
	if reason == sat.CancelWithRelation && replacement == "" {
		return nil, domain.NewValidationError("cancellation reason 01 requires replacement_fiscal_id")
	}
	if replacement != "" {
		if _, err := uuid.Parse(replacement); err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid replacement_fiscal_id %q", in.ReplacementFiscalID))
		}
	}

	inv, err := uc.loadByFiscalID(ctx, tenantID, fiscalID)
	if err != nil {
		return nil, err
	}

	var certErr *domain.CertificationError
	updated, err := uc.invoiceRepo.Update(ctx, inv.ID, owned(tenantID, func(doc *entity.Invoice) error {
		if _, err := cfdi.CanTransition(doc.Status, cfdi.OpCancel); err != nil {
			return err
		}
		pacCtx, cancel := context.WithTimeout(ctx, uc.cfg.CertifyTimeout)
		defer cancel()
		cancelledAt, err := uc.certifier.CancelCertification(pacCtx, doc.FiscalID, reason, replacement)
		if err != nil {
			certErr = certificationError(err, uc.cfg.CertifyTimeout.String())
			return certErr
		}
		cancelledAt = cancelledAt.UTC()
		doc.Status = entity.InvoiceStatusCancelled
		doc.CancellationReason = string(reason)
		doc.ReplacementFiscalID = replacement
		doc.CancelledAt = &cancelledAt
		doc.UpdatedAt = uc.now().UTC()
		return nil
	}))
	if err != nil {
		if certErr != nil {
			uc.log.Warn().
				Str("tenant_id", tenantID).
				Str("fiscal_id", inv.FiscalID).
				Str("reason", certErr.Reason).
				Msg("cancelación rechazada por el PAC")
			return nil, certErr
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("fiscal id %s: %w", fiscalID, domain.ErrNotFound)
		}
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("fiscal_id", updated.FiscalID).
		Str("reason", string(reason)).
		Msg("CFDI cancelado")
	return &dto.CancelResponse{
		ID:                 updated.ID,
		FiscalID:           updated.FiscalID,
		Status:             updated.Status,
		CancellationReason: updated.CancellationReason,
		CancelledAt:        *updated.CancelledAt,
	}, nil
}
