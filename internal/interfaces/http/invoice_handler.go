package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
)

// InvoiceHandler expone el ciclo de vida del CFDI (protegido).
type InvoiceHandler struct {
	uc *billing.InvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create valida y guarda un comprobante en borrador.
// @Summary      Crear comprobante (borrador)
// @Description  Calcula subtotal, impuestos y total. Un documento inválido no se guarda y se listan todos los problemas.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateInvoiceRequest  true  "receptor y conceptos"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	locationID := in.LocationID
	if locationID == "" {
		locationID = GetLocationID(c)
	}
	invoice, err := h.uc.CreateInvoice(c.Context(), tenantID, locationID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// List lista comprobantes del tenant con filtros y paginación.
// @Summary      Listar comprobantes
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "draft, stamped, cancelled, error"
// @Param        location_id  query  string  false  "sucursal"
// @Param        start_date   query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        end_date     query  string  false  "YYYY-MM-DD o RFC3339 (día completo)"
// @Param        limit        query  int     false  "default 20, max 100"
// @Param        offset       query  int     false  "desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	in, err := parseFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
	}
	list, err := h.uc.ListInvoices(c.Context(), tenantID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Stats agrega conteos y totales del tenant.
// @Summary      Estadísticas de comprobantes
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        start_date  query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        end_date    query  string  false  "YYYY-MM-DD o RFC3339"
// @Success      200  {object}  dto.InvoiceStatsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/invoices/stats [get]
func (h *InvoiceHandler) Stats(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	in, err := parseFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
	}
	stats, err := h.uc.GetStats(c.Context(), tenantID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

// GetByID detalle de un comprobante.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	invoice, err := h.uc.GetInvoice(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(invoice)
}

// GetByFiscalID detalle por folio fiscal (UUID del timbre).
// GET /api/invoices/uuid/:uuid
func (h *InvoiceHandler) GetByFiscalID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	invoice, err := h.uc.GetInvoiceByFiscalID(c.Context(), tenantID, c.Params("uuid"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(invoice)
}

// Stamp sella y timbra un borrador con el PAC.
// @Summary      Timbrar comprobante
// @Description  Solo desde draft. Si el PAC falla, el documento queda en error con el motivo.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del comprobante"
// @Success      200  {object}  dto.StampResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/stamp [post]
func (h *InvoiceHandler) Stamp(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	res, err := h.uc.StampInvoice(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Retry crea un borrador nuevo a partir de un comprobante en error.
// POST /api/invoices/:id/retry
func (h *InvoiceHandler) Retry(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	invoice, err := h.uc.RetryInvoice(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// Cancel cancela un CFDI timbrado ante el PAC.
// @Summary      Cancelar CFDI
// @Description  Motivo 01 exige el UUID del comprobante que lo sustituye.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        uuid  path      string                    true  "folio fiscal"
// @Param        body  body      dto.CancelInvoiceRequest  true  "motivo (01-04) y sustituto"
// @Success      200   {object}  dto.CancelResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/invoices/uuid/{uuid}/cancel [post]
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CancelInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.CancelInvoice(c.Context(), tenantID, c.Params("uuid"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// DownloadXML descarga el XML timbrado.
// @Summary      Descargar XML timbrado
// @Tags         invoices
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {file}    file
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/xml [get]
func (h *InvoiceHandler) DownloadXML(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	data, filename, err := h.uc.DownloadDocument(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendAttachment(c, "application/xml; charset=utf-8", filename, data)
}

// DownloadPDF descarga la representación impresa.
// @Summary      Descargar PDF
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {file}    file
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	data, filename, err := h.uc.DownloadPDF(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendAttachment(c, "application/pdf", filename, data)
}

// ValidateRFC verifica formato y dígito de un RFC.
// GET /api/rfc/:rfc/validate
func (h *InvoiceHandler) ValidateRFC(c *fiber.Ctx) error {
	return c.JSON(h.uc.ValidateTaxID(strings.TrimSpace(c.Params("rfc"))))
}

func parseFilter(c *fiber.Ctx) (dto.InvoiceFilterRequest, error) {
	var in dto.InvoiceFilterRequest
	if err := c.QueryParser(&in); err != nil {
		return in, err
	}
	in.Limit = c.QueryInt("limit", in.Limit)
	in.Offset = c.QueryInt("offset", in.Offset)
	return in, nil
}

func sendAttachment(c *fiber.Ctx, contentType, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
