package sat_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/sat"
	pkgsat "github.com/jhoicas/cfdi-api/pkg/sat"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleInvoice() *entity.Invoice {
	inv := &entity.Invoice{
		ID: "inv-1", Series: "A", Folio: 7,
		Type: pkgsat.TypeIncome, PaymentMethod: pkgsat.PaymentMethodPUE, PaymentForm: pkgsat.PaymentFormCash,
		Currency: "MXN", PlaceOfIssue: "64000",
		Issuer: entity.Party{RFC: "EKU9003173C9", Name: "ESCUELA KEMPER URGATE", TaxRegime: pkgsat.RegimeGeneralCompanies},
		Receptor: entity.Party{
			RFC: "XAXX010101000", Name: "PUBLICO   EN GENERAL", CFDIUse: pkgsat.UseNoTaxEffects,
			TaxRegime: pkgsat.RegimeNoTaxObligations, PostalCode: "64000",
		},
		Concepts: []entity.Concept{{
			ProductCode: pkgsat.ProductCodeGeneric, UnitCode: pkgsat.UnitPiece, Description: "Servicio de soporte",
			Quantity: d("2"), UnitValue: d("45"), Amount: d("90"), Discount: d("10"),
			Taxes: []entity.ConceptTax{{
				Kind: entity.TaxKindTransferred, Tax: pkgsat.TaxIVA, FactorType: pkgsat.FactorRate,
				Rate: d("0.16"), Base: d("80"), Amount: d("14.4"),
			}},
		}},
		IssuedAt: time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC),
	}
	cfdi.CalculateTotals(inv.Concepts).Apply(inv)
	return inv
}

func newPAC() *sat.LocalPAC {
	return sat.NewLocalPAC(sat.PACConfig{
		ProviderRFC: "SPR190613I52", SATCertificateNumber: "30001000000500003456", SATSealKey: "secreto",
		Location: time.UTC,
	}, nil)
}

func TestXMLBuilder_Determinista(t *testing.T) {
	b := sat.NewXMLBuilder()
	opts := sat.BuildOptions{Date: "2026-03-01T18:30:00", CertificateNumber: "30001000000500003416"}

	first, err := b.Build(sampleInvoice(), opts)
	require.NoError(t, err)
	second, err := b.Build(sampleInvoice(), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	x := string(first)
	assert.Contains(t, x, `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4"`)
	assert.Contains(t, x, `SubTotal="90.00"`)
	assert.Contains(t, x, `Descuento="10.00"`)
	assert.Contains(t, x, `Total="94.40"`)
	assert.Contains(t, x, `TasaOCuota="0.160000"`)
	assert.Contains(t, x, `TotalImpuestosTrasladados="14.40"`)
	assert.Contains(t, x, `ObjetoImp="02"`)
	assert.Contains(t, x, `<cfdi:Complemento>`)
}

func TestOriginalString(t *testing.T) {
	b := sat.NewXMLBuilder()
	raw, err := b.Build(sampleInvoice(), sat.BuildOptions{Date: "2026-03-01T18:30:00", Seal: "SELLO", CertificateNumber: "123"})
	require.NoError(t, err)

	s, err := sat.OriginalString(raw)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(s, "||4.0|A|7|2026-03-01T18:30:00|01|123|90.00|10.00|MXN|94.40|I|01|PUE|64000|EKU9003173C9|"), s)
	assert.True(t, strings.HasSuffix(s, "||"))
	assert.NotContains(t, s, "SELLO", "el sello no forma parte de la cadena")
	assert.Contains(t, s, "|PUBLICO EN GENERAL|", "espacios normalizados")
	assert.NotContains(t, s, "http://")
}

func TestCertify_TimbraYRegistra(t *testing.T) {
	pac := newPAC()
	inv := sampleInvoice()

	cert, err := pac.Certify(context.Background(), inv)
	require.NoError(t, err)

	assert.Len(t, cert.FiscalID, 36)
	assert.Equal(t, strings.ToUpper(cert.FiscalID), cert.FiscalID)
	assert.NotEmpty(t, cert.Seal)
	assert.NotEmpty(t, cert.SATSeal)
	assert.Len(t, cert.OriginalStringDigest, 64)
	assert.Equal(t, "30001000000500003456", cert.SATCertificateNumber)

	tfd, err := sat.ReadStamp(cert.XML)
	require.NoError(t, err)
	assert.Equal(t, cert.FiscalID, tfd.UUID)
	assert.Equal(t, cert.Seal, tfd.IssuerSeal)
	assert.Equal(t, "SPR190613I52", tfd.ProviderRFC)
	assert.Contains(t, string(cert.XML), cert.OriginalStringDigest, "la addenda lleva el digesto")

	other, err := pac.Certify(context.Background(), sampleInvoice())
	require.NoError(t, err)
	assert.NotEqual(t, cert.FiscalID, other.FiscalID)

	// El sello SAT se verifica con la cadena del timbre.
	satSealer := sat.NewDigestSealer("secreto", "30001000000500003456")
	assert.True(t, satSealer.Verify(sat.TFDOriginalString(tfd.UUID, tfd.StampedAt, tfd.ProviderRFC, tfd.IssuerSeal, tfd.SATCertificateNo), tfd.SATSeal))
}

// El mismo contenido produce el mismo sello: la serialización es determinista.
func TestCertify_SelloDeterminista(t *testing.T) {
	pac := newPAC()
	a, err := pac.Certify(context.Background(), sampleInvoice())
	require.NoError(t, err)
	b, err := pac.Certify(context.Background(), sampleInvoice())
	require.NoError(t, err)
	assert.Equal(t, a.Seal, b.Seal)
	assert.Equal(t, a.OriginalStringDigest, b.OriginalStringDigest)
}

func TestCertify_RechazaTotalesInconsistentes(t *testing.T) {
	inv := sampleInvoice()
	inv.Total = d("1")

	_, err := newPAC().Certify(context.Background(), inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CFDI40119")
}

func TestCertify_RespetaTimeout(t *testing.T) {
	pac := sat.NewLocalPAC(sat.PACConfig{SATSealKey: "k", Latency: time.Second, Location: time.UTC}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := pac.Certify(ctx, sampleInvoice())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCancelCertification(t *testing.T) {
	pac := newPAC()
	ctx := context.Background()
	cert, err := pac.Certify(ctx, sampleInvoice())
	require.NoError(t, err)

	at, err := pac.CancelCertification(ctx, cert.FiscalID, pkgsat.CancelWithoutRelation, "")
	require.NoError(t, err)
	assert.False(t, at.IsZero())

	_, err = pac.CancelCertification(ctx, cert.FiscalID, pkgsat.CancelWithoutRelation, "")
	assert.Error(t, err, "doble cancelación")

	_, err = pac.CancelCertification(ctx, "no-es-uuid", pkgsat.CancelNotCarriedOut, "")
	assert.Error(t, err)

	_, err = pac.CancelCertification(ctx, cert.FiscalID, pkgsat.CancellationReason("09"), "")
	assert.Error(t, err)
}

// Tras un reinicio el PAC no conoce los UUID previos: el estado vive en el almacén.
func TestCancelCertification_UUIDDeOtraInstancia(t *testing.T) {
	ctx := context.Background()
	cert, err := newPAC().Certify(ctx, sampleInvoice())
	require.NoError(t, err)

	restarted := newPAC()
	_, err = restarted.CancelCertification(ctx, cert.FiscalID, pkgsat.CancelWithoutRelation, "")
	require.NoError(t, err)

	_, err = restarted.CancelCertification(ctx, cert.FiscalID, pkgsat.CancelWithoutRelation, "")
	assert.Error(t, err, "la segunda cancelación se rechaza")
}

func TestCanonicalDigest(t *testing.T) {
	a, err := sat.CanonicalDigest([]byte(`<?xml version="1.0"?><cfdi x="1" y="2"><c>v</c></cfdi>`))
	require.NoError(t, err)
	b, err := sat.CanonicalDigest([]byte(`<cfdi y="2" x="1"><c>v</c></cfdi>`))
	require.NoError(t, err)
	assert.Equal(t, a, b, "C14N ordena atributos y omite la declaración")
	assert.Len(t, a, 64)

	_, err = sat.CanonicalDigest([]byte(`<cfdi><sin-cerrar></cfdi>`))
	assert.Error(t, err)
}

func selfSignedCSD(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	serial := new(big.Int).SetBytes([]byte("30001000000500003416"))
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "ESCUELA KEMPER URGATE"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func TestRSASealer_CSDDelEmisor(t *testing.T) {
	csd := selfSignedCSD(t)
	sealer, err := sat.NewRSASealer(csd)
	require.NoError(t, err)
	assert.Equal(t, "30001000000500003416", sealer.CertificateNumber())
	assert.NotEmpty(t, sealer.Certificate())

	pac := newPAC()
	pac.RegisterIssuer("EKU9003173C9", sealer)

	cert, err := pac.Certify(context.Background(), sampleInvoice())
	require.NoError(t, err)
	assert.Equal(t, "30001000000500003416", cert.CertificateNumber)
	assert.Contains(t, string(cert.XML), `NoCertificado="30001000000500003416"`)
}

func TestNewRSASealer_SinLlave(t *testing.T) {
	_, err := sat.NewRSASealer(tls.Certificate{})
	assert.Error(t, err)
}
