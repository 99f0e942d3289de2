package repository

import (
	"context"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// IssuerRepository resuelve la configuración fiscal por tenant.
type IssuerRepository interface {
	// GetByTenant devuelve nil, nil si el tenant no tiene emisor configurado.
	GetByTenant(ctx context.Context, tenantID string) (*entity.Issuer, error)
	Save(ctx context.Context, issuer *entity.Issuer) error
}
