package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/domain"
)

var _ billing.DocumentArchive = (*MemoryArchive)(nil)

// MemoryArchive archivo en proceso (desarrollo y pruebas).
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive crea el archivo vacío.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: map[string][]byte{}}
}

func (a *MemoryArchive) Put(ctx context.Context, key string, xml []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.New("storage key is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), xml...)
	return key, nil
}

func (a *MemoryArchive) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, fmt.Errorf("get object %s: %w", key, domain.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}
