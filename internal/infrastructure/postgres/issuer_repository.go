package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
)

var _ repository.IssuerRepository = (*IssuerRepo)(nil)

// IssuerRepo datos fiscales del emisor por tenant.
// El CSD (rutas y contraseña) no se guarda en la base; llega por configuración.
type IssuerRepo struct {
	q Querier
}

// NewIssuerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIssuerRepository(q Querier) *IssuerRepo {
	return &IssuerRepo{q: q}
}

// GetByTenant devuelve el emisor o nil, nil.
func (r *IssuerRepo) GetByTenant(ctx context.Context, tenantID string) (*entity.Issuer, error) {
	const query = `
		SELECT tenant_id, rfc, name, tax_regime, postal_code, default_series
		FROM issuers WHERE tenant_id = $1`
	var is entity.Issuer
	err := r.q.QueryRow(ctx, query, tenantID).Scan(
		&is.TenantID, &is.RFC, &is.Name, &is.TaxRegime, &is.PostalCode, &is.DefaultSeries,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get issuer: %w", err)
	}
	return &is, nil
}

// Save inserta o actualiza el emisor del tenant.
func (r *IssuerRepo) Save(ctx context.Context, issuer *entity.Issuer) error {
	if issuer.TenantID == "" {
		return errors.New("issuer tenant id is required")
	}
	const query = `
		INSERT INTO issuers (tenant_id, rfc, name, tax_regime, postal_code, default_series)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id) DO UPDATE
		SET rfc = EXCLUDED.rfc, name = EXCLUDED.name, tax_regime = EXCLUDED.tax_regime,
		    postal_code = EXCLUDED.postal_code, default_series = EXCLUDED.default_series,
		    updated_at = now()`
	_, err := r.q.Exec(ctx, query,
		issuer.TenantID, issuer.RFC, issuer.Name, issuer.TaxRegime, issuer.PostalCode, issuer.DefaultSeries,
	)
	if err != nil {
		return fmt.Errorf("save issuer: %w", err)
	}
	return nil
}
