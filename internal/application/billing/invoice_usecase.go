package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
	"github.com/jhoicas/cfdi-api/pkg/logger"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// DefaultCertifyTimeout plazo por defecto de una llamada al PAC.
const DefaultCertifyTimeout = 30 * time.Second

// InvoiceConfig parámetros del caso de uso.
type InvoiceConfig struct {
	CertifyTimeout time.Duration
}

// InvoiceUseCase ciclo completo del CFDI: alta, timbrado, cancelación, consulta y descargas.
type InvoiceUseCase struct {
	invoiceRepo repository.InvoiceRepository
	issuerRepo  repository.IssuerRepository
	certifier   Certifier
	archive     DocumentArchive
	pdf         InvoicePDFGenerator
	cfg         InvoiceConfig
	log         *logger.Logger
	now         func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. archive y pdf pueden ser nil.
func NewInvoiceUseCase(
	invoiceRepo repository.InvoiceRepository,
	issuerRepo repository.IssuerRepository,
	certifier Certifier,
	archive DocumentArchive,
	pdf InvoicePDFGenerator,
	cfg InvoiceConfig,
	log *logger.Logger,
) *InvoiceUseCase {
	if cfg.CertifyTimeout <= 0 {
		cfg.CertifyTimeout = DefaultCertifyTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		invoiceRepo: invoiceRepo,
		issuerRepo:  issuerRepo,
		certifier:   certifier,
		archive:     archive,
		pdf:         pdf,
		cfg:         cfg,
		log:         log.Component("billing"),
		now:         time.Now,
	}
}

// CreateInvoice valida la solicitud, calcula totales y guarda el borrador.
// Un documento inválido nunca se persiste: se devuelven todos los problemas juntos.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, tenantID, locationID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	issuer, err := uc.issuerRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get issuer: %w", err)
	}
	if issuer == nil {
		return nil, domain.NewValidationError("no issuer configured for tenant")
	}

	inv := buildInvoice(issuer, in)
	if result := cfdi.ValidateDocument(inv); !result.Valid {
		return nil, domain.NewValidationError(result.Errors...)
	}
	cfdi.CalculateTotals(inv.Concepts).Apply(inv)

	now := uc.now().UTC()
	inv.ID = uuid.NewString()
	inv.TenantID = tenantID
	if inv.LocationID == "" {
		inv.LocationID = locationID
	}
	inv.Status = entity.InvoiceStatusDraft
	inv.IssuedAt = now.Truncate(time.Second)
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Series != "" {
		folio, err := uc.invoiceRepo.NextFolio(ctx, tenantID, inv.Series)
		if err != nil {
			return nil, fmt.Errorf("next folio: %w", err)
		}
		inv.Folio = folio
	}

	if err := uc.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("invoice_id", inv.ID).
		Str("total", inv.Total.StringFixed(2)).
		Msg("borrador de CFDI creado")
	return toInvoiceResponse(inv), nil
}

// GetInvoice devuelve el documento del tenant. Documentos de otro tenant se reportan como inexistentes.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, tenantID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// GetInvoiceByFiscalID busca por UUID del timbre.
func (uc *InvoiceUseCase) GetInvoiceByFiscalID(ctx context.Context, tenantID, fiscalID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.loadByFiscalID(ctx, tenantID, fiscalID)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// ListInvoices lista con filtros y paginación, más recientes primero.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, tenantID string, in dto.InvoiceFilterRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()
	filter, err := toFilter(tenantID, in)
	if err != nil {
		return nil, err
	}
	filter.Limit = in.Limit
	filter.Offset = in.Offset
	list, err := uc.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	items := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, *toInvoiceResponse(inv))
	}
	return &dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// GetStats conteos y sumas del conjunto filtrado (sin paginar).
func (uc *InvoiceUseCase) GetStats(ctx context.Context, tenantID string, in dto.InvoiceFilterRequest) (*dto.InvoiceStatsResponse, error) {
	filter, err := toFilter(tenantID, in)
	if err != nil {
		return nil, err
	}
	stats, err := uc.invoiceRepo.Stats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	return toStatsResponse(stats), nil
}

// ValidateTaxID valida la forma de un RFC.
func (uc *InvoiceUseCase) ValidateTaxID(taxID string) *dto.ValidateRFCResponse {
	return &dto.ValidateRFCResponse{RFC: taxID, Valid: sat.ValidateRFC(taxID)}
}

// ArchiveKey llave del XML timbrado: tenant/aaaa/mm/UUID.xml
func ArchiveKey(tenantID, fiscalID string, stampedAt time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d/%s.xml", tenantID, stampedAt.Year(), int(stampedAt.Month()), fiscalID)
}

func (uc *InvoiceUseCase) load(ctx context.Context, tenantID, id string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv == nil || inv.TenantID != tenantID {
		return nil, fmt.Errorf("invoice %s: %w", id, domain.ErrNotFound)
	}
	return inv, nil
}

func (uc *InvoiceUseCase) loadByFiscalID(ctx context.Context, tenantID, fiscalID string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByFiscalID(ctx, strings.ToUpper(strings.TrimSpace(fiscalID)))
	if err != nil {
		return nil, fmt.Errorf("get invoice by fiscal id: %w", err)
	}
	if inv == nil || inv.TenantID != tenantID {
		return nil, fmt.Errorf("fiscal id %s: %w", fiscalID, domain.ErrNotFound)
	}
	return inv, nil
}

// owned envuelve fn para que solo opere sobre documentos del tenant.
func owned(tenantID string, fn func(*entity.Invoice) error) func(*entity.Invoice) error {
	return func(inv *entity.Invoice) error {
		if inv.TenantID != tenantID {
			return fmt.Errorf("invoice %s: %w", inv.ID, domain.ErrNotFound)
		}
		return fn(inv)
	}
}

// buildInvoice arma la entidad con los valores por defecto del emisor.
func buildInvoice(issuer *entity.Issuer, in dto.CreateInvoiceRequest) *entity.Invoice {
	inv := &entity.Invoice{
		LocationID:    strings.TrimSpace(in.LocationID),
		OrderRef:      strings.TrimSpace(in.OrderRef),
		Series:        strings.TrimSpace(in.Series),
		Type:          defaultString(in.Type, sat.TypeIncome),
		PaymentMethod: defaultString(in.PaymentMethod, sat.PaymentMethodPUE),
		PaymentForm:   defaultString(in.PaymentForm, sat.PaymentFormCash),
		Currency:      defaultString(in.Currency, "MXN"),
		PlaceOfIssue:  defaultString(in.PlaceOfIssue, issuer.PostalCode),
		Issuer:        issuer.Party(),
		Receptor: entity.Party{
			RFC:        strings.TrimSpace(in.Receptor.RFC),
			Name:       strings.TrimSpace(in.Receptor.Name),
			TaxRegime:  strings.TrimSpace(in.Receptor.TaxRegime),
			CFDIUse:    strings.TrimSpace(in.Receptor.CFDIUse),
			PostalCode: strings.TrimSpace(in.Receptor.PostalCode),
		},
		Note: in.Note,
	}
	if inv.Series == "" {
		inv.Series = issuer.DefaultSeries
	}
	inv.Concepts = make([]entity.Concept, 0, len(in.Concepts))
	for _, c := range in.Concepts {
		inv.Concepts = append(inv.Concepts, buildConcept(c))
	}
	return inv
}

func buildConcept(in dto.ConceptRequest) entity.Concept {
	c := entity.Concept{
		ProductCode: defaultString(in.ProductCode, sat.ProductCodeGeneric),
		UnitCode:    defaultString(in.UnitCode, sat.UnitPiece),
		Description: strings.TrimSpace(in.Description),
		Quantity:    in.Quantity,
		UnitValue:   in.UnitValue,
		Amount:      in.Amount,
		Discount:    in.Discount,
	}
	for _, t := range in.Taxes {
		tax := entity.ConceptTax{
			Kind:       strings.TrimSpace(t.Kind),
			Tax:        strings.TrimSpace(t.Tax),
			FactorType: defaultString(t.FactorType, sat.FactorRate),
			Rate:       t.Rate,
		}
		tax.Base = cfdi.TaxBase(tax.FactorType, c)
		if t.Base != nil {
			tax.Base = *t.Base
		}
		if t.Amount != nil {
			tax.Amount = *t.Amount
		} else {
			tax.Amount = cfdi.TaxAmount(tax.FactorType, tax.Base, tax.Rate)
		}
		// exento: sin tasa ni importe
		if tax.FactorType == sat.FactorExempt {
			tax.Rate = decimal.Zero
			tax.Amount = decimal.Zero
		}
		c.Taxes = append(c.Taxes, tax)
	}
	return c
}

func defaultString(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// toFilter convierte el filtro HTTP. Fechas: YYYY-MM-DD (día completo) o RFC3339.
func toFilter(tenantID string, in dto.InvoiceFilterRequest) (entity.InvoiceFilter, error) {
	f := entity.InvoiceFilter{
		TenantID:   tenantID,
		LocationID: strings.TrimSpace(in.LocationID),
		Status:     strings.ToLower(strings.TrimSpace(in.Status)),
	}
	var problems []string
	switch f.Status {
	case "", entity.InvoiceStatusDraft, entity.InvoiceStatusStamped, entity.InvoiceStatusCancelled, entity.InvoiceStatusError:
	default:
		problems = append(problems, fmt.Sprintf("invalid status %q", in.Status))
	}
	if in.StartDate != "" {
		from, _, err := parseDate(in.StartDate)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid start_date %q", in.StartDate))
		} else {
			f.From = &from
		}
	}
	if in.EndDate != "" {
		to, dateOnly, err := parseDate(in.EndDate)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid end_date %q", in.EndDate))
		} else {
			if dateOnly {
				to = to.Add(24*time.Hour - time.Nanosecond)
			}
			f.To = &to
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		problems = append(problems, "end_date must not be before start_date")
	}
	if len(problems) > 0 {
		return f, domain.NewValidationError(problems...)
	}
	return f, nil
}

func parseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, errors.New("formato de fecha inválido")
	}
	return t, false, nil
}
