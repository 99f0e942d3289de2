package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
)

var _ repository.IssuerRepository = (*IssuerRepository)(nil)

// IssuerRepository directorio de emisores por tenant, cargado desde TENANTS_FILE.
type IssuerRepository struct {
	mu      sync.RWMutex
	issuers map[string]entity.Issuer
}

// NewIssuerRepository construye el directorio con los emisores iniciales.
func NewIssuerRepository(issuers ...entity.Issuer) *IssuerRepository {
	r := &IssuerRepository{issuers: make(map[string]entity.Issuer, len(issuers))}
	for _, is := range issuers {
		r.issuers[is.TenantID] = is
	}
	return r
}

func (r *IssuerRepository) GetByTenant(_ context.Context, tenantID string) (*entity.Issuer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	is, ok := r.issuers[tenantID]
	if !ok {
		return nil, nil
	}
	return &is, nil
}

func (r *IssuerRepository) Save(_ context.Context, issuer *entity.Issuer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issuers[issuer.TenantID] = *issuer
	return nil
}
