package cfdi

import (
	"fmt"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// Operation operación que solicita un cambio de estado.
type Operation string

const (
	OpStamp  Operation = "stamp"
	OpCancel Operation = "cancel"
	OpRetry  Operation = "retry"
)

// transitions tabla de transiciones legales: estado origen + operación -> estado destino.
// El fallo del timbrado (draft -> error) lo decide el flujo de timbrado, no el guard.
var transitions = map[string]map[Operation]string{
	entity.InvoiceStatusDraft:   {OpStamp: entity.InvoiceStatusStamped},
	entity.InvoiceStatusStamped: {OpCancel: entity.InvoiceStatusCancelled},
	entity.InvoiceStatusError:   {OpRetry: entity.InvoiceStatusDraft},
}

// CanTransition devuelve el estado destino o un error envuelto en domain.ErrStateConflict.
func CanTransition(from string, op Operation) (string, error) {
	if to, ok := transitions[from][op]; ok {
		return to, nil
	}
	if op == OpStamp && from == entity.InvoiceStatusStamped {
		return "", fmt.Errorf("%w: already stamped", domain.ErrStateConflict)
	}
	return "", fmt.Errorf("%w: cannot %s a document in status %s", domain.ErrStateConflict, op, from)
}

// MarkStamped aplica los artefactos de certificación. El folio fiscal se asigna una sola vez.
func MarkStamped(inv *entity.Invoice, fiscalID string) error {
	if _, err := CanTransition(inv.Status, OpStamp); err != nil {
		return err
	}
	if inv.FiscalID != "" {
		return fmt.Errorf("%w: fiscal id already assigned", domain.ErrStateConflict)
	}
	inv.FiscalID = fiscalID
	inv.Status = entity.InvoiceStatusStamped
	inv.FailureReason = ""
	return nil
}

// MarkFailed deja el borrador en estado error sin folio fiscal.
func MarkFailed(inv *entity.Invoice, reason string) error {
	if inv.Status != entity.InvoiceStatusDraft {
		return fmt.Errorf("%w: cannot fail a document in status %s", domain.ErrStateConflict, inv.Status)
	}
	inv.Status = entity.InvoiceStatusError
	inv.FailureReason = reason
	return nil
}
