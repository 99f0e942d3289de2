package billing_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/memory"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/storage"
	pkgsat "github.com/jhoicas/cfdi-api/pkg/sat"
)

const tenant = "tenant-1"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// stubCertifier delega en el PAC local y permite forzar fallas.
type stubCertifier struct {
	billing.Certifier
	certifyErr error
	cancelErr  error
	calls      atomic.Int32
}

func (s *stubCertifier) Certify(ctx context.Context, inv *entity.Invoice) (*billing.Certification, error) {
	s.calls.Add(1)
	if s.certifyErr != nil {
		return nil, s.certifyErr
	}
	return s.Certifier.Certify(ctx, inv)
}

func (s *stubCertifier) CancelCertification(ctx context.Context, fiscalID string, reason pkgsat.CancellationReason, replacement string) (time.Time, error) {
	if s.cancelErr != nil {
		return time.Time{}, s.cancelErr
	}
	return s.Certifier.CancelCertification(ctx, fiscalID, reason, replacement)
}

type failingArchive struct{}

func (failingArchive) Put(context.Context, string, []byte) (string, error) {
	return "", errors.New("bucket no disponible")
}

func (failingArchive) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket no disponible")
}

type stubPDF struct{}

func (stubPDF) Generate(inv *entity.Invoice) ([]byte, error) {
	return []byte("%PDF-" + inv.FiscalID), nil
}

type fixture struct {
	uc      *billing.InvoiceUseCase
	repo    *memory.InvoiceRepository
	pac     *sat.LocalPAC
	cert    *stubCertifier
	archive *storage.MemoryArchive
}

func newFixture(t *testing.T, opts ...func(*sat.PACConfig, *billing.InvoiceConfig)) *fixture {
	t.Helper()
	pacCfg := sat.PACConfig{
		ProviderRFC: "SPR190613I52", SATCertificateNumber: "30001000000500003456", SATSealKey: "secreto",
		Location: time.UTC,
	}
	ucCfg := billing.InvoiceConfig{CertifyTimeout: 2 * time.Second}
	for _, o := range opts {
		o(&pacCfg, &ucCfg)
	}
	pac := sat.NewLocalPAC(pacCfg, nil)
	cert := &stubCertifier{Certifier: pac}
	repo := memory.NewInvoiceRepository()
	issuers := memory.NewIssuerRepository(entity.Issuer{
		TenantID: tenant, RFC: "EKU9003173C9", Name: "ESCUELA KEMPER URGATE",
		TaxRegime: pkgsat.RegimeGeneralCompanies, PostalCode: "64000", DefaultSeries: "A",
	})
	archive := storage.NewMemoryArchive()
	uc := billing.NewInvoiceUseCase(repo, issuers, cert, archive, stubPDF{}, ucCfg, nil)
	return &fixture{uc: uc, repo: repo, pac: pac, cert: cert, archive: archive}
}

func validRequest() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		OrderRef: "PED-100",
		Receptor: dto.ReceptorRequest{
			RFC: "XAXX010101000", Name: "PUBLICO EN GENERAL", CFDIUse: pkgsat.UseNoTaxEffects,
			TaxRegime: pkgsat.RegimeNoTaxObligations, PostalCode: "64000",
		},
		Concepts: []dto.ConceptRequest{{
			Description: "Servicio de soporte",
			Quantity:    d("2"), UnitValue: d("45"), Amount: d("90"),
			Taxes: []dto.TaxRequest{{Kind: entity.TaxKindTransferred, Tax: pkgsat.TaxIVA, Rate: d("0.16")}},
		}},
	}
}

func (f *fixture) stamped(t *testing.T) *dto.StampResponse {
	t.Helper()
	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)
	res, err := f.uc.StampInvoice(context.Background(), tenant, inv.ID)
	require.NoError(t, err)
	return res
}

func TestCreateInvoice_CalculaTotalesYDefaults(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "suc-1", validRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Empty(t, inv.FiscalID)
	assert.True(t, d("90").Equal(inv.Subtotal))
	assert.True(t, d("14.40").Equal(inv.TotalTransferred))
	assert.True(t, d("104.40").Equal(inv.Total))
	assert.Equal(t, "A", inv.Series)
	assert.Equal(t, int64(1), inv.Folio)
	assert.Equal(t, pkgsat.TypeIncome, inv.Type)
	assert.Equal(t, pkgsat.PaymentMethodPUE, inv.PaymentMethod)
	assert.Equal(t, "64000", inv.PlaceOfIssue)
	assert.Equal(t, "suc-1", inv.LocationID)
	assert.Equal(t, "EKU9003173C9", inv.Issuer.RFC)
	require.Len(t, inv.Concepts, 1)
	assert.True(t, d("90").Equal(inv.Concepts[0].Taxes[0].Base))

	// el folio avanza por serie
	second, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Folio)
}

func TestCreateInvoice_DescuentoReduceBase(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Concepts[0].Discount = d("10")
	amount := d("14.4")
	req.Concepts[0].Taxes[0].Amount = &amount
	base := d("90")
	req.Concepts[0].Taxes[0].Base = &base

	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", req)
	require.NoError(t, err)
	assert.True(t, d("94.40").Equal(inv.Total), "90 - 10 + 14.40")
}

func TestCreateInvoice_RFCReceptorInvalidoNoPersiste(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Receptor.RFC = "ABC"

	_, err := f.uc.CreateInvoice(context.Background(), tenant, "", req)
	require.ErrorIs(t, err, domain.ErrValidation)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Problems, cfdi.MsgInvalidReceptorRFC)

	list, err := f.uc.ListInvoices(context.Background(), tenant, dto.InvoiceFilterRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

// El RFC se valida tal como llega: minúsculas no se corrigen.
func TestCreateInvoice_RFCReceptorEnMinusculas(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Receptor.RFC = "xaxx010101000"

	_, err := f.uc.CreateInvoice(context.Background(), tenant, "", req)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Problems, cfdi.MsgInvalidReceptorRFC)
	assert.False(t, f.uc.ValidateTaxID(req.Receptor.RFC).Valid)
}

func TestCreateInvoice_ExentoNoSumaImpuesto(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	amount := d("14.4")
	req.Concepts[0].Taxes[0].FactorType = pkgsat.FactorExempt
	req.Concepts[0].Taxes[0].Amount = &amount

	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", req)
	require.NoError(t, err)
	assert.True(t, inv.TotalTransferred.IsZero(), "traslados: %s", inv.TotalTransferred)
	assert.True(t, d("90").Equal(inv.Total), "total: %s", inv.Total)
	require.Len(t, inv.Concepts[0].Taxes, 1)
	assert.True(t, inv.Concepts[0].Taxes[0].Amount.IsZero())
	assert.True(t, inv.Concepts[0].Taxes[0].Rate.IsZero())
}

// IEPS por cuota: la base por defecto es la cantidad, no el importe.
func TestCreateInvoice_CuotaSobreCantidad(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Concepts[0].Taxes = append(req.Concepts[0].Taxes, dto.TaxRequest{
		Kind: entity.TaxKindTransferred, Tax: pkgsat.TaxIEPS, FactorType: pkgsat.FactorQuota, Rate: d("1.5"),
	})

	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", req)
	require.NoError(t, err)
	ieps := inv.Concepts[0].Taxes[1]
	assert.True(t, d("2").Equal(ieps.Base), "base: %s", ieps.Base)
	assert.True(t, d("3").Equal(ieps.Amount), "importe: %s", ieps.Amount)
	assert.True(t, d("107.40").Equal(inv.Total), "90 + 14.40 + 3")
}

func TestCreateInvoice_AcumulaProblemas(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Receptor.RFC = "ABC"
	req.Concepts = nil

	_, err := f.uc.CreateInvoice(context.Background(), tenant, "", req)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Problems, cfdi.MsgInvalidReceptorRFC)
	assert.Contains(t, verr.Problems, cfdi.MsgNoConcepts)
}

func TestCreateInvoice_SinEmisor(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateInvoice(context.Background(), "otro", "", validRequest())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStampInvoice_Exito(t *testing.T) {
	f := newFixture(t)
	res := f.stamped(t)

	assert.Equal(t, entity.InvoiceStatusStamped, res.Status)
	assert.NotEmpty(t, res.FiscalID)
	assert.Equal(t, strings.ToUpper(res.FiscalID), res.FiscalID)
	assert.NotEmpty(t, res.Seal)
	assert.Equal(t, billing.ArchiveKey(tenant, res.FiscalID, res.StampedAt), res.DocumentRef)

	archived, err := f.archive.Get(context.Background(), res.DocumentRef)
	require.NoError(t, err)
	assert.Contains(t, string(archived), res.FiscalID)

	xml, name, err := f.uc.DownloadDocument(context.Background(), tenant, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.FiscalID+".xml", name)
	assert.Contains(t, string(xml), `UUID="`+res.FiscalID+`"`)

	byUUID, err := f.uc.GetInvoiceByFiscalID(context.Background(), tenant, strings.ToLower(res.FiscalID))
	require.NoError(t, err)
	assert.Equal(t, res.ID, byUUID.ID)
}

func TestStampInvoice_DosVecesEsConflicto(t *testing.T) {
	f := newFixture(t)
	res := f.stamped(t)

	_, err := f.uc.StampInvoice(context.Background(), tenant, res.ID)
	require.ErrorIs(t, err, domain.ErrStateConflict)
	assert.Contains(t, err.Error(), "already stamped")
	assert.Equal(t, int32(1), f.cert.calls.Load(), "el PAC se invoca una sola vez")
}

func TestStampInvoice_ConcurrenteUnSoloTimbrado(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	var ok, conflict atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.StampInvoice(context.Background(), tenant, inv.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrStateConflict):
				conflict.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(n-1), conflict.Load())
	assert.Equal(t, int32(1), f.cert.calls.Load())
}

func TestStampInvoice_FallaDelPACDejaError(t *testing.T) {
	f := newFixture(t)
	f.cert.certifyErr = errors.New("CFDI40102: sello inválido")
	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)

	_, err = f.uc.StampInvoice(context.Background(), tenant, inv.ID)
	require.ErrorIs(t, err, domain.ErrCertification)
	var cerr *domain.CertificationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "CFDI40102: sello inválido", cerr.Reason)

	got, err := f.uc.GetInvoice(context.Background(), tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusError, got.Status)
	assert.Empty(t, got.FiscalID)
	assert.Equal(t, "CFDI40102: sello inválido", got.FailureReason)

	// error es terminal para el timbrado
	_, err = f.uc.StampInvoice(context.Background(), tenant, inv.ID)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestStampInvoice_TimeoutDelPAC(t *testing.T) {
	f := newFixture(t, func(p *sat.PACConfig, c *billing.InvoiceConfig) {
		p.Latency = 500 * time.Millisecond
		c.CertifyTimeout = 20 * time.Millisecond
	})
	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)

	_, err = f.uc.StampInvoice(context.Background(), tenant, inv.ID)
	require.ErrorIs(t, err, domain.ErrCertification)
	assert.Contains(t, err.Error(), "timed out")

	got, err := f.uc.GetInvoice(context.Background(), tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusError, got.Status)
}

func TestStampInvoice_ArchivoNoEsFatal(t *testing.T) {
	pac := sat.NewLocalPAC(sat.PACConfig{SATSealKey: "k", Location: time.UTC}, nil)
	repo := memory.NewInvoiceRepository()
	issuers := memory.NewIssuerRepository(entity.Issuer{
		TenantID: tenant, RFC: "EKU9003173C9", Name: "ESCUELA KEMPER URGATE",
		TaxRegime: pkgsat.RegimeGeneralCompanies, PostalCode: "64000",
	})
	uc := billing.NewInvoiceUseCase(repo, issuers, pac, failingArchive{}, nil, billing.InvoiceConfig{}, nil)

	inv, err := uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)
	assert.Zero(t, inv.Folio, "sin serie no hay folio")

	res, err := uc.StampInvoice(context.Background(), tenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusStamped, res.Status)
	assert.Empty(t, res.DocumentRef)

	// el XML sigue disponible desde la base
	xml, _, err := uc.DownloadDocument(context.Background(), tenant, inv.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, xml)
}

func TestRetryInvoice_CreaBorradorNuevo(t *testing.T) {
	f := newFixture(t)
	f.cert.certifyErr = errors.New("servicio no disponible")
	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)
	_, err = f.uc.StampInvoice(context.Background(), tenant, inv.ID)
	require.Error(t, err)

	retry, err := f.uc.RetryInvoice(context.Background(), tenant, inv.ID)
	require.NoError(t, err)
	assert.NotEqual(t, inv.ID, retry.ID)
	assert.Equal(t, entity.InvoiceStatusDraft, retry.Status)
	assert.Equal(t, inv.ID, retry.RetriedFrom)
	assert.True(t, inv.Total.Equal(retry.Total))
	assert.Empty(t, retry.FailureReason)

	f.cert.certifyErr = nil
	res, err := f.uc.StampInvoice(context.Background(), tenant, retry.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, res.FiscalID)

	// solo documentos en error se reintentan
	_, err = f.uc.RetryInvoice(context.Background(), tenant, retry.ID)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestCancelInvoice(t *testing.T) {
	f := newFixture(t)
	res := f.stamped(t)

	out, err := f.uc.CancelInvoice(context.Background(), tenant, res.FiscalID, dto.CancelInvoiceRequest{Reason: "02"})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, out.Status)
	assert.Equal(t, string(pkgsat.CancelWithoutRelation), out.CancellationReason)
	assert.False(t, out.CancelledAt.IsZero())

	_, err = f.uc.CancelInvoice(context.Background(), tenant, res.FiscalID, dto.CancelInvoiceRequest{Reason: "02"})
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	// cancelado ya no descarga XML pero sí PDF
	_, _, err = f.uc.DownloadDocument(context.Background(), tenant, res.ID)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	pdf, name, err := f.uc.DownloadPDF(context.Background(), tenant, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.FiscalID+".pdf", name)
	assert.NotEmpty(t, pdf)
}

func TestCancelInvoice_Validaciones(t *testing.T) {
	f := newFixture(t)
	res := f.stamped(t)

	_, err := f.uc.CancelInvoice(context.Background(), tenant, res.FiscalID, dto.CancelInvoiceRequest{Reason: "99"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.CancelInvoice(context.Background(), tenant, res.FiscalID, dto.CancelInvoiceRequest{Reason: "01"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.CancelInvoice(context.Background(), tenant, res.FiscalID, dto.CancelInvoiceRequest{Reason: "01", ReplacementFiscalID: "no-es-uuid"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.CancelInvoice(context.Background(), "otro", res.FiscalID, dto.CancelInvoiceRequest{Reason: "02"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.CancelInvoice(context.Background(), tenant, "6F1D2A3B-0000-4000-8000-000000000000", dto.CancelInvoiceRequest{Reason: "02"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.uc.GetInvoice(context.Background(), tenant, res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusStamped, got.Status)
}

func TestCancelInvoice_FallaDelPACConservaTimbrado(t *testing.T) {
	f := newFixture(t)
	res := f.stamped(t)
	f.cert.cancelErr = errors.New("CA2020: UUID no encontrado")

	_, err := f.uc.CancelInvoice(context.Background(), tenant, res.FiscalID, dto.CancelInvoiceRequest{Reason: "03"})
	require.ErrorIs(t, err, domain.ErrCertification)

	got, err := f.uc.GetInvoice(context.Background(), tenant, res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusStamped, got.Status)
	assert.Nil(t, got.CancelledAt)
}

func TestCancelInvoice_Sustitucion(t *testing.T) {
	f := newFixture(t)
	original := f.stamped(t)
	replacement := f.stamped(t)

	out, err := f.uc.CancelInvoice(context.Background(), tenant, original.FiscalID, dto.CancelInvoiceRequest{
		Reason: "issued in error with relation", ReplacementFiscalID: strings.ToLower(replacement.FiscalID),
	})
	require.NoError(t, err)
	assert.Equal(t, string(pkgsat.CancelWithRelation), out.CancellationReason)

	got, err := f.uc.GetInvoice(context.Background(), tenant, original.ID)
	require.NoError(t, err)
	assert.Equal(t, replacement.FiscalID, got.ReplacementFiscalID)
}

func TestGetInvoice_OtroTenantNoExiste(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)

	_, err = f.uc.GetInvoice(context.Background(), "otro", inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.StampInvoice(context.Background(), "otro", inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.StampInvoice(context.Background(), tenant, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownload_BorradorEsConflicto(t *testing.T) {
	f := newFixture(t)
	inv, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)

	_, _, err = f.uc.DownloadDocument(context.Background(), tenant, inv.ID)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	_, _, err = f.uc.DownloadPDF(context.Background(), tenant, inv.ID)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestListYStats(t *testing.T) {
	f := newFixture(t)
	f.stamped(t)
	f.stamped(t)
	_, err := f.uc.CreateInvoice(context.Background(), tenant, "", validRequest())
	require.NoError(t, err)

	list, err := f.uc.ListInvoices(context.Background(), tenant, dto.InvoiceFilterRequest{Status: "stamped"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, dto.DefaultLimit, list.Page.Limit)

	page, err := f.uc.ListInvoices(context.Background(), tenant, dto.InvoiceFilterRequest{PageRequest: dto.PageRequest{Limit: 1}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	stats, err := f.uc.GetStats(context.Background(), tenant, dto.InvoiceFilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 2, stats.StampedCount)
	assert.Equal(t, 1, stats.ByStatus[entity.InvoiceStatusDraft])
	assert.True(t, d("208.80").Equal(stats.Total), "solo suman los timbrados")

	_, err = f.uc.ListInvoices(context.Background(), tenant, dto.InvoiceFilterRequest{StartDate: "ayer"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.uc.GetStats(context.Background(), tenant, dto.InvoiceFilterRequest{Status: "borrador"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	other, err := f.uc.GetStats(context.Background(), "otro", dto.InvoiceFilterRequest{})
	require.NoError(t, err)
	assert.Zero(t, other.Count)
}

func TestValidateTaxID(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.uc.ValidateTaxID("EKU9003173C9").Valid)
	assert.False(t, f.uc.ValidateTaxID("EKU9003173C").Valid)
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "t1/2026/03/ABC.xml", billing.ArchiveKey("t1", "ABC", at))
}
