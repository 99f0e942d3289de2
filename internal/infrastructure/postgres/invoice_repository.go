package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository sobre PostgreSQL.
// Update bloquea la fila (SELECT ... FOR UPDATE) y verifica la versión al escribir.
type InvoiceRepo struct {
	db DB
	tx *TxRunner
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx.
func NewInvoiceRepository(db DB) *InvoiceRepo {
	return &InvoiceRepo{db: db, tx: NewTxRunner(db)}
}

const invoiceColumns = `
	id, tenant_id, location_id, order_ref, series, folio,
	type, payment_method, payment_form, currency, place_of_issue,
	issuer, receptor, concepts,
	subtotal, discount, total_transferred, total_withheld, total,
	status, COALESCE(fiscal_id, ''), xml, seal, certificate_number, original_string_digest,
	sat_seal, sat_certificate_number, stamped_at, document_ref,
	failure_reason, cancellation_reason, replacement_fiscal_id, cancelled_at,
	note, retried_from, issued_at, created_at, updated_at, version`

// Create persiste un borrador nuevo.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.Status != entity.InvoiceStatusDraft {
		return fmt.Errorf("create invoice %s: %w: only drafts can be created", invoice.ID, domain.ErrStateConflict)
	}
	issuer, receptor, concepts, err := encodeDocument(invoice)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO invoices (
			id, tenant_id, location_id, order_ref, series, folio,
			type, payment_method, payment_form, currency, place_of_issue,
			issuer, receptor, concepts,
			subtotal, discount, total_transferred, total_withheld, total,
			status, note, retried_from, issued_at, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, 1)`
	_, err = r.db.Exec(ctx, query,
		invoice.ID, invoice.TenantID, invoice.LocationID, invoice.OrderRef, invoice.Series, invoice.Folio,
		invoice.Type, invoice.PaymentMethod, invoice.PaymentForm, invoice.Currency, invoice.PlaceOfIssue,
		issuer, receptor, concepts,
		invoice.Subtotal, invoice.Discount, invoice.TotalTransferred, invoice.TotalWithheld, invoice.Total,
		invoice.Status, invoice.Note, invoice.RetriedFrom, invoice.IssuedAt, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice %s already exists: %w", invoice.ID, domain.ErrStateConflict)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	invoice.Version = 1
	return nil
}

// Update lee el documento con bloqueo de fila, aplica fn y escribe si fn no falla.
func (r *InvoiceRepo) Update(ctx context.Context, id string, fn func(*entity.Invoice) error) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.tx.Run(ctx, func(q Querier) error {
		current, err := scanInvoice(q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("update invoice %s: %w", id, domain.ErrNotFound)
			}
			return fmt.Errorf("lock invoice: %w", err)
		}

		draft := current.Clone()
		if err := fn(draft); err != nil {
			return err
		}
		if draft.ID != current.ID {
			return fmt.Errorf("update invoice %s: id is immutable", id)
		}
		if current.FiscalID != "" && draft.FiscalID != current.FiscalID {
			return fmt.Errorf("update invoice %s: %w: fiscal id is immutable", id, domain.ErrStateConflict)
		}
		draft.Version = current.Version + 1
		if err := writeInvoice(ctx, q, draft, current.Version); err != nil {
			return err
		}
		out = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeInvoice(ctx context.Context, q Querier, inv *entity.Invoice, expectedVersion int64) error {
	issuer, receptor, concepts, err := encodeDocument(inv)
	if err != nil {
		return err
	}
	const query = `
		UPDATE invoices
		SET location_id = $3, order_ref = $4, series = $5, folio = $6,
		    type = $7, payment_method = $8, payment_form = $9, currency = $10, place_of_issue = $11,
		    issuer = $12, receptor = $13, concepts = $14,
		    subtotal = $15, discount = $16, total_transferred = $17, total_withheld = $18, total = $19,
		    status = $20, fiscal_id = $21, xml = $22, seal = $23, certificate_number = $24,
		    original_string_digest = $25, sat_seal = $26, sat_certificate_number = $27,
		    stamped_at = $28, document_ref = $29, failure_reason = $30,
		    cancellation_reason = $31, replacement_fiscal_id = $32, cancelled_at = $33,
		    note = $34, updated_at = $35, version = $36
		WHERE id = $1 AND version = $2`
	tag, err := q.Exec(ctx, query,
		inv.ID, expectedVersion,
		inv.LocationID, inv.OrderRef, inv.Series, inv.Folio,
		inv.Type, inv.PaymentMethod, inv.PaymentForm, inv.Currency, inv.PlaceOfIssue,
		issuer, receptor, concepts,
		inv.Subtotal, inv.Discount, inv.TotalTransferred, inv.TotalWithheld, inv.Total,
		inv.Status, nullIfEmpty(inv.FiscalID), inv.XML, inv.Seal, inv.CertificateNumber,
		inv.OriginalStringDigest, inv.SATSeal, inv.SATCertificateNumber,
		inv.StampedAt, inv.DocumentRef, inv.FailureReason,
		inv.CancellationReason, inv.ReplacementFiscalID, inv.CancelledAt,
		inv.Note, inv.UpdatedAt, inv.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update invoice %s: %w: duplicate fiscal id %s", inv.ID, domain.ErrStateConflict, inv.FiscalID)
		}
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update invoice %s: %w: concurrent modification", inv.ID, domain.ErrStateConflict)
	}
	return nil
}

// GetByID obtiene el documento completo o nil, nil.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetByFiscalID busca por UUID del timbre o nil, nil.
func (r *InvoiceRepo) GetByFiscalID(ctx context.Context, fiscalID string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE fiscal_id = $1`, fiscalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice by fiscal id: %w", err)
	}
	return inv, nil
}

// List filtra, ordena por issued_at descendente y pagina.
func (r *InvoiceRepo) List(ctx context.Context, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where + ` ORDER BY issued_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// Stats agrupa por estado, tipo y forma de pago; las sumas solo cuentan timbrados.
func (r *InvoiceRepo) Stats(ctx context.Context, filter entity.InvoiceFilter) (*entity.InvoiceStats, error) {
	where, args := filterClause(filter)
	query := `
		SELECT status, type, payment_form, COUNT(*),
		       COALESCE(SUM(subtotal), 0), COALESCE(SUM(discount), 0),
		       COALESCE(SUM(total_transferred), 0), COALESCE(SUM(total_withheld), 0),
		       COALESCE(SUM(total), 0)
		FROM invoices` + where + `
		GROUP BY status, type, payment_form`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	defer rows.Close()

	stats := entity.NewInvoiceStats()
	for rows.Next() {
		var status, typ, form string
		var count int
		var sub, disc, tr, wh, total decimal.Decimal
		if err := rows.Scan(&status, &typ, &form, &count, &sub, &disc, &tr, &wh, &total); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.Count += count
		stats.ByStatus[status] += count
		stats.ByType[typ] += count
		stats.ByPaymentForm[form] += count
		if status == entity.InvoiceStatusStamped {
			stats.StampedCount += count
			stats.Subtotal = stats.Subtotal.Add(sub)
			stats.Discount = stats.Discount.Add(disc)
			stats.TotalTransferred = stats.TotalTransferred.Add(tr)
			stats.TotalWithheld = stats.TotalWithheld.Add(wh)
			stats.Total = stats.Total.Add(total)
		}
	}
	return stats, rows.Err()
}

// NextFolio incrementa el contador tenant+serie de forma atómica.
func (r *InvoiceRepo) NextFolio(ctx context.Context, tenantID, series string) (int64, error) {
	const query = `
		INSERT INTO invoice_folios (tenant_id, series, last_folio) VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, series) DO UPDATE SET last_folio = invoice_folios.last_folio + 1
		RETURNING last_folio`
	var folio int64
	if err := r.db.QueryRow(ctx, query, tenantID, series).Scan(&folio); err != nil {
		return 0, fmt.Errorf("next folio: %w", err)
	}
	return folio, nil
}

func filterClause(f entity.InvoiceFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.TenantID != "" {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.LocationID != "" {
		add("location_id = $%d", f.LocationID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.From != nil {
		add("issued_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("issued_at <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func encodeDocument(inv *entity.Invoice) (issuer, receptor, concepts []byte, err error) {
	if issuer, err = marshalParty(inv.Issuer); err != nil {
		return nil, nil, nil, fmt.Errorf("encode issuer: %w", err)
	}
	if receptor, err = marshalParty(inv.Receptor); err != nil {
		return nil, nil, nil, fmt.Errorf("encode receptor: %w", err)
	}
	if concepts, err = marshalConcepts(inv.Concepts); err != nil {
		return nil, nil, nil, fmt.Errorf("encode concepts: %w", err)
	}
	return issuer, receptor, concepts, nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var issuer, receptor, concepts []byte
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.LocationID, &inv.OrderRef, &inv.Series, &inv.Folio,
		&inv.Type, &inv.PaymentMethod, &inv.PaymentForm, &inv.Currency, &inv.PlaceOfIssue,
		&issuer, &receptor, &concepts,
		&inv.Subtotal, &inv.Discount, &inv.TotalTransferred, &inv.TotalWithheld, &inv.Total,
		&inv.Status, &inv.FiscalID, &inv.XML, &inv.Seal, &inv.CertificateNumber, &inv.OriginalStringDigest,
		&inv.SATSeal, &inv.SATCertificateNumber, &inv.StampedAt, &inv.DocumentRef,
		&inv.FailureReason, &inv.CancellationReason, &inv.ReplacementFiscalID, &inv.CancelledAt,
		&inv.Note, &inv.RetriedFrom, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt, &inv.Version,
	)
	if err != nil {
		return nil, err
	}
	if inv.Issuer, err = unmarshalParty(issuer); err != nil {
		return nil, err
	}
	if inv.Receptor, err = unmarshalParty(receptor); err != nil {
		return nil, err
	}
	if inv.Concepts, err = unmarshalConcepts(concepts); err != nil {
		return nil, err
	}
	return &inv, nil
}
