package repository

import (
	"context"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia de CFDI.
// Los documentos nunca se eliminan.
type InvoiceRepository interface {
	// Create inserta un documento en estado draft.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update aplica fn sobre el documento id de forma atómica: ninguna otra
	// llamada a Update sobre el mismo id corre en paralelo y los lectores
	// nunca ven el estado intermedio. Si fn devuelve error no se persiste nada.
	Update(ctx context.Context, id string, fn func(invoice *entity.Invoice) error) (*entity.Invoice, error)
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetByFiscalID busca por UUID del timbre; nil, nil si no existe.
	GetByFiscalID(ctx context.Context, fiscalID string) (*entity.Invoice, error)
	// List ordena por fecha de emisión descendente.
	List(ctx context.Context, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
	// Stats ignora Limit/Offset del filtro.
	Stats(ctx context.Context, filter entity.InvoiceFilter) (*entity.InvoiceStats, error)
	// NextFolio reserva el siguiente folio de la serie del tenant.
	NextFolio(ctx context.Context, tenantID, series string) (int64, error)
}
