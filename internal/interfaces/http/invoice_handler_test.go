package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/memory"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/pdf"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/storage"
	apphttp "github.com/jhoicas/cfdi-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/cfdi-api/pkg/jwt"
	pkgsat "github.com/jhoicas/cfdi-api/pkg/sat"
)

// buildInvoiceApp arma la API completa sobre repositorios en memoria y el PAC local.
func buildInvoiceApp(t *testing.T) *fiber.App {
	t.Helper()
	pac := sat.NewLocalPAC(sat.PACConfig{
		ProviderRFC: "SPR190613I52", SATCertificateNumber: "30001000000500003456", SATSealKey: "secreto",
		Location: time.UTC,
	}, nil)
	issuers := memory.NewIssuerRepository(entity.Issuer{
		TenantID: testTenantID, RFC: "EKU9003173C9", Name: "ESCUELA KEMPER URGATE",
		TaxRegime: pkgsat.RegimeGeneralCompanies, PostalCode: "64000", DefaultSeries: "A",
	})
	uc := billing.NewInvoiceUseCase(
		memory.NewInvoiceRepository(), issuers, pac, storage.NewMemoryArchive(), pdf.NewMarotoPDFGenerator(),
		billing.InvoiceConfig{CertifyTimeout: 2 * time.Second}, nil,
	)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{InvoiceUC: uc, JWTSecret: testJWTSecret})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func createBody() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		Receptor: dto.ReceptorRequest{
			RFC: "XAXX010101000", Name: "PUBLICO EN GENERAL", CFDIUse: pkgsat.UseNoTaxEffects,
			TaxRegime: pkgsat.RegimeNoTaxObligations, PostalCode: "64000",
		},
		Concepts: []dto.ConceptRequest{{
			Description: "Servicio de soporte",
			Quantity:    decimal.NewFromInt(2), UnitValue: decimal.NewFromInt(45), Amount: decimal.NewFromInt(90),
			Taxes: []dto.TaxRequest{{Kind: entity.TaxKindTransferred, Tax: pkgsat.TaxIVA, Rate: decimal.RequireFromString("0.16")}},
		}},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo completo: alta → timbrado → descargas → cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceAPI_CicloCompleto(t *testing.T) {
	app := buildInvoiceApp(t)
	admin := tokenForRole(t, pkgjwt.RoleAdmin)
	biller := tokenForRole(t, pkgjwt.RoleBiller)

	resp := call(t, app, http.MethodPost, "/api/invoices", biller, createBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.InvoiceResponse
	decode(t, resp, &created)
	assert.Equal(t, entity.InvoiceStatusDraft, created.Status)
	assert.Equal(t, testLocationID, created.LocationID)
	assert.True(t, decimal.RequireFromString("104.40").Equal(created.Total))

	// el XML no existe antes del timbrado
	resp = call(t, app, http.MethodGet, "/api/invoices/"+created.ID+"/xml", biller, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, "/api/invoices/"+created.ID+"/stamp", biller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stamped dto.StampResponse
	decode(t, resp, &stamped)
	assert.Equal(t, entity.InvoiceStatusStamped, stamped.Status)
	require.NotEmpty(t, stamped.FiscalID)

	resp = call(t, app, http.MethodPost, "/api/invoices/"+created.ID+"/stamp", biller, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/invoices/"+created.ID+"/xml", biller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/xml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), stamped.FiscalID+".xml")
	xmlBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(xmlBody), "TimbreFiscalDigital")

	resp = call(t, app, http.MethodGet, "/api/invoices/"+created.ID+"/pdf", biller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdfBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, bytes.HasPrefix(pdfBody, []byte("%PDF")))

	resp = call(t, app, http.MethodGet, "/api/invoices/uuid/"+strings.ToLower(stamped.FiscalID), biller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var byUUID dto.InvoiceResponse
	decode(t, resp, &byUUID)
	assert.Equal(t, created.ID, byUUID.ID)

	// solo admin cancela
	cancelPath := "/api/invoices/uuid/" + stamped.FiscalID + "/cancel"
	resp = call(t, app, http.MethodPost, cancelPath, biller, dto.CancelInvoiceRequest{Reason: "02"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, cancelPath, admin, dto.CancelInvoiceRequest{Reason: "02"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled dto.CancelResponse
	decode(t, resp, &cancelled)
	assert.Equal(t, entity.InvoiceStatusCancelled, cancelled.Status)
	assert.Equal(t, "02", cancelled.CancellationReason)

	resp = call(t, app, http.MethodPost, cancelPath, admin, dto.CancelInvoiceRequest{Reason: "02"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// cancelado: el PDF sigue disponible, el XML no
	resp = call(t, app, http.MethodGet, "/api/invoices/"+created.ID+"/pdf", biller, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = call(t, app, http.MethodGet, "/api/invoices/"+created.ID+"/xml", biller, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceAPI_ValidacionListaProblemas(t *testing.T) {
	app := buildInvoiceApp(t)
	body := createBody()
	body.Receptor.RFC = "NO-VALIDO"
	body.Concepts[0].Amount = decimal.NewFromInt(91)

	resp := call(t, app, http.MethodPost, "/api/invoices", tokenForRole(t, pkgjwt.RoleBiller), body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.GreaterOrEqual(t, len(e.Details), 2)

	resp = call(t, app, http.MethodGet, "/api/invoices", tokenForRole(t, pkgjwt.RoleBiller), nil)
	var list dto.InvoiceListResponse
	decode(t, resp, &list)
	assert.Empty(t, list.Items)
}

func TestInvoiceAPI_CuerpoInvalido(t *testing.T) {
	app := buildInvoiceApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", strings.NewReader("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleBiller))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvoiceAPI_AuditorSoloConsulta(t *testing.T) {
	app := buildInvoiceApp(t)
	auditor := tokenForRole(t, pkgjwt.RoleAuditor)

	resp := call(t, app, http.MethodPost, "/api/invoices", auditor, createBody())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/invoices/stats", auditor, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestInvoiceAPI_NoEncontrado(t *testing.T) {
	app := buildInvoiceApp(t)
	resp := call(t, app, http.MethodGet, "/api/invoices/no-existe", tokenForRole(t, pkgjwt.RoleBiller), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestInvoiceAPI_OtroTenantNoVeElComprobante(t *testing.T) {
	app := buildInvoiceApp(t)
	resp := call(t, app, http.MethodPost, "/api/invoices", tokenForRole(t, pkgjwt.RoleBiller), createBody())
	var created dto.InvoiceResponse
	decode(t, resp, &created)

	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "tenant-2", "", pkgjwt.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)
	resp = call(t, app, http.MethodGet, "/api/invoices/"+created.ID, "Bearer "+tok, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvoiceAPI_FiltroDeFechaInvalido(t *testing.T) {
	app := buildInvoiceApp(t)
	resp := call(t, app, http.MethodGet, "/api/invoices?start_date=ayer", tokenForRole(t, pkgjwt.RoleBiller), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestInvoiceAPI_ListaPaginada(t *testing.T) {
	app := buildInvoiceApp(t)
	biller := tokenForRole(t, pkgjwt.RoleBiller)
	for i := 0; i < 3; i++ {
		resp := call(t, app, http.MethodPost, "/api/invoices", biller, createBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := call(t, app, http.MethodGet, "/api/invoices?limit=2&status=draft", biller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.InvoiceListResponse
	decode(t, resp, &list)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.Page.Limit)
}

func TestInvoiceAPI_ValidarRFC(t *testing.T) {
	app := buildInvoiceApp(t)
	resp := call(t, app, http.MethodGet, "/api/rfc/EKU9003173C9/validate", tokenForRole(t, pkgjwt.RoleAuditor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.ValidateRFCResponse
	decode(t, resp, &out)
	assert.True(t, out.Valid)
	assert.Equal(t, "EKU9003173C9", out.RFC)
}
