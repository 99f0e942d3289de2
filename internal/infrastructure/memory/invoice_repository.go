// Package memory implementa los puertos de persistencia en memoria.
// Útil para desarrollo (STORE_DRIVER=memory) y pruebas; respeta las mismas
// garantías de atomicidad que el repositorio PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)

// InvoiceRepository arena de documentos con índices por id y por folio fiscal.
// mu protege arena, índices y folios; cada documento tiene además su propio
// candado, que se mantiene durante todo el callback de Update.
type InvoiceRepository struct {
	mu         sync.RWMutex
	arena      []*entity.Invoice
	byID       map[string]int
	byFiscalID map[string]int
	locks      map[string]*sync.Mutex
	folios     map[string]int64
}

// NewInvoiceRepository construye el almacén vacío.
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{
		byID:       map[string]int{},
		byFiscalID: map[string]int{},
		locks:      map[string]*sync.Mutex{},
		folios:     map[string]int64{},
	}
}

// Create inserta un borrador. El id debe ser nuevo.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if invoice.Status != entity.InvoiceStatusDraft {
		return fmt.Errorf("insert invoice: %w: only drafts can be inserted", domain.ErrStateConflict)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[invoice.ID]; ok {
		return fmt.Errorf("insert invoice %s: duplicate id", invoice.ID)
	}
	doc := invoice.Clone()
	doc.Version = 1
	r.arena = append(r.arena, doc)
	r.byID[doc.ID] = len(r.arena) - 1
	r.locks[doc.ID] = &sync.Mutex{}
	invoice.Version = doc.Version
	return nil
}

// Update serializa los escritores del mismo documento con su candado propio.
// fn trabaja sobre una copia; la copia reemplaza al original bajo el candado global.
func (r *InvoiceRepository) Update(ctx context.Context, id string, fn func(*entity.Invoice) error) (*entity.Invoice, error) {
	r.mu.RLock()
	lock, ok := r.locks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("update invoice %s: %w", id, domain.ErrNotFound)
	}

	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	idx := r.byID[id]
	current := r.arena[idx]
	r.mu.RUnlock()

	draft := current.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	if draft.ID != current.ID {
		return nil, fmt.Errorf("update invoice %s: id is immutable", id)
	}
	if current.FiscalID != "" && draft.FiscalID != current.FiscalID {
		return nil, fmt.Errorf("update invoice %s: %w: fiscal id is immutable", id, domain.ErrStateConflict)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if draft.FiscalID != "" && current.FiscalID == "" {
		if other, dup := r.byFiscalID[draft.FiscalID]; dup && other != idx {
			return nil, fmt.Errorf("update invoice %s: duplicate fiscal id %s", id, draft.FiscalID)
		}
		r.byFiscalID[draft.FiscalID] = idx
	}
	draft.Version = current.Version + 1
	r.arena[idx] = draft
	return draft.Clone(), nil
}

// GetByID devuelve una copia o nil, nil.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return r.arena[idx].Clone(), nil
}

// GetByFiscalID devuelve una copia o nil, nil.
func (r *InvoiceRepository) GetByFiscalID(ctx context.Context, fiscalID string) (*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byFiscalID[fiscalID]
	if !ok {
		return nil, nil
	}
	return r.arena[idx].Clone(), nil
}

// List filtra, ordena por IssuedAt descendente y pagina.
func (r *InvoiceRepository) List(ctx context.Context, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	out, err := r.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*entity.Invoice{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Stats agrega sobre el conjunto filtrado completo.
func (r *InvoiceRepository) Stats(ctx context.Context, filter entity.InvoiceFilter) (*entity.InvoiceStats, error) {
	docs, err := r.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	return cfdi.Summarize(docs), nil
}

// NextFolio incrementa el contador tenant+serie.
func (r *InvoiceRepository) NextFolio(ctx context.Context, tenantID, series string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tenantID + "|" + series
	r.folios[key]++
	return r.folios[key], nil
}

func (r *InvoiceRepository) snapshot(ctx context.Context, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Invoice, 0, len(r.arena))
	for _, inv := range r.arena {
		if cfdi.Matches(inv, filter) {
			out = append(out, inv.Clone())
		}
	}
	return out, nil
}
