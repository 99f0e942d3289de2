package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// DownloadDocument devuelve el XML timbrado y el nombre de archivo.
// Solo existe para documentos timbrados; si el XML no está en la base se lee del archivo.
func (uc *InvoiceUseCase) DownloadDocument(ctx context.Context, tenantID, id string) ([]byte, string, error) {
	inv, err := uc.load(ctx, tenantID, id)
	if err != nil {
		return nil, "", err
	}
	if inv.Status != entity.InvoiceStatusStamped {
		return nil, "", fmt.Errorf("%w: xml is only available for stamped documents (status %s)", domain.ErrStateConflict, inv.Status)
	}
	filename := inv.FiscalID + ".xml"
	if inv.XML != "" {
		return []byte(inv.XML), filename, nil
	}
	if uc.archive == nil || inv.DocumentRef == "" {
		return nil, "", fmt.Errorf("xml for %s: %w", inv.FiscalID, domain.ErrNotFound)
	}
	data, err := uc.archive.Get(ctx, inv.DocumentRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("xml for %s: %w", inv.FiscalID, domain.ErrNotFound)
		}
		return nil, "", fmt.Errorf("archive get: %w", err)
	}
	return data, filename, nil
}

// DownloadPDF genera la representación impresa de un CFDI timbrado o cancelado.
func (uc *InvoiceUseCase) DownloadPDF(ctx context.Context, tenantID, id string) ([]byte, string, error) {
	inv, err := uc.load(ctx, tenantID, id)
	if err != nil {
		return nil, "", err
	}
	if !inv.IsFinal() {
		return nil, "", fmt.Errorf("%w: pdf is only available for stamped documents (status %s)", domain.ErrStateConflict, inv.Status)
	}
	if uc.pdf == nil {
		return nil, "", errors.New("pdf generator not configured")
	}
	data, err := uc.pdf.Generate(inv)
	if err != nil {
		return nil, "", fmt.Errorf("generate pdf: %w", err)
	}
	return data, inv.FiscalID + ".pdf", nil
}
