package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// StampInvoice envía el borrador al PAC y registra el resultado.
//
// El guard del ciclo de vida y la llamada al PAC ocurren bajo el candado del documento,
// así que dos solicitudes concurrentes producen un solo timbrado; la otra recibe ErrStateConflict.
// Si el PAC falla, el documento queda en estado error y se devuelve CertificationError.
// La subida del XML al archivo no es fatal.
func (uc *InvoiceUseCase) StampInvoice(ctx context.Context, tenantID, id string) (*dto.StampResponse, error) {
	var certErr *domain.CertificationError

	updated, err := uc.invoiceRepo.Update(ctx, id, owned(tenantID, func(inv *entity.Invoice) error {
		if _, err := cfdi.CanTransition(inv.Status, cfdi.OpStamp); err != nil {
			return err
		}

		pacCtx, cancel := context.WithTimeout(ctx, uc.cfg.CertifyTimeout)
		defer cancel()
		cert, err := uc.certifier.Certify(pacCtx, inv.Clone())
		if err != nil {
			certErr = certificationError(err, uc.cfg.CertifyTimeout.String())
			inv.UpdatedAt = uc.now().UTC()
			return cfdi.MarkFailed(inv, certErr.Reason)
		}

		if err := cfdi.MarkStamped(inv, cert.FiscalID); err != nil {
			return err
		}
		stampedAt := cert.StampedAt.UTC()
		inv.XML = string(cert.XML)
		inv.Seal = cert.Seal
		inv.CertificateNumber = cert.CertificateNumber
		inv.OriginalStringDigest = cert.OriginalStringDigest
		inv.SATSeal = cert.SATSeal
		inv.SATCertificateNumber = cert.SATCertificateNumber
		inv.StampedAt = &stampedAt
		inv.UpdatedAt = uc.now().UTC()
		inv.DocumentRef = uc.archiveXML(ctx, inv, cert.XML)
		return nil
	}))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invoice %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if certErr != nil {
		uc.log.Warn().
			Str("tenant_id", tenantID).
			Str("invoice_id", id).
			Str("reason", certErr.Reason).
			Msg("timbrado rechazado por el PAC")
		return nil, certErr
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("invoice_id", id).
		Str("fiscal_id", updated.FiscalID).
		Msg("CFDI timbrado")
	return &dto.StampResponse{
		ID:                   updated.ID,
		FiscalID:             updated.FiscalID,
		Status:               updated.Status,
		Seal:                 updated.Seal,
		CertificateNumber:    updated.CertificateNumber,
		OriginalStringDigest: updated.OriginalStringDigest,
		SATCertificateNumber: updated.SATCertificateNumber,
		StampedAt:            *updated.StampedAt,
		DocumentRef:          updated.DocumentRef,
	}, nil
}

// RetryInvoice crea un borrador nuevo con el contenido de un documento en error.
// El documento original queda en error como registro del intento fallido.
func (uc *InvoiceUseCase) RetryInvoice(ctx context.Context, tenantID, id string) (*dto.InvoiceResponse, error) {
	failed, err := uc.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if _, err := cfdi.CanTransition(failed.Status, cfdi.OpRetry); err != nil {
		return nil, err
	}

	retry := failed.Clone()
	now := uc.now().UTC()
	retry.ID = uuid.NewString()
	retry.Status = entity.InvoiceStatusDraft
	retry.FailureReason = ""
	retry.RetriedFrom = failed.ID
	retry.IssuedAt = now.Truncate(time.Second)
	retry.CreatedAt = now
	retry.UpdatedAt = now
	retry.Version = 0
	if retry.Series != "" {
		folio, err := uc.invoiceRepo.NextFolio(ctx, tenantID, retry.Series)
		if err != nil {
			return nil, fmt.Errorf("next folio: %w", err)
		}
		retry.Folio = folio
	}
	if err := uc.invoiceRepo.Create(ctx, retry); err != nil {
		return nil, fmt.Errorf("create retry: %w", err)
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("invoice_id", retry.ID).
		Str("retried_from", failed.ID).
		Msg("reintento de timbrado creado")
	return toInvoiceResponse(retry), nil
}

// archiveXML sube el XML timbrado; ante error solo registra una advertencia.
func (uc *InvoiceUseCase) archiveXML(ctx context.Context, inv *entity.Invoice, xml []byte) string {
	if uc.archive == nil {
		return ""
	}
	key := ArchiveKey(inv.TenantID, inv.FiscalID, *inv.StampedAt)
	ref, err := uc.archive.Put(ctx, key, xml)
	if err != nil {
		uc.log.Warn().Err(err).
			Str("invoice_id", inv.ID).
			Str("key", key).
			Msg("no se pudo archivar el XML timbrado")
		return ""
	}
	return ref
}

// certificationError conserva el mensaje del PAC; el vencimiento del plazo se reporta explícitamente.
func certificationError(err error, timeout string) *domain.CertificationError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.CertificationError{Reason: "certification timed out after " + timeout, Err: err}
	}
	return &domain.CertificationError{Reason: err.Error(), Err: err}
}
