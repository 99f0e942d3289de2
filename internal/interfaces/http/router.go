package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC *billing.InvoiceUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	readers := RequireRole(jwt.ReaderRoles()...)
	writers := RequireRole(jwt.WriterRoles()...)
	cancellers := RequireRole(jwt.CancelRoles()...)

	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)

	invoices := protected.Group("/invoices")
	invoices.Post("/", writers, invoiceHandler.Create)
	invoices.Get("/", readers, invoiceHandler.List)
	invoices.Get("/stats", readers, invoiceHandler.Stats)

	// Por folio fiscal (UUID del timbre)
	invoices.Get("/uuid/:uuid", readers, invoiceHandler.GetByFiscalID)
	invoices.Post("/uuid/:uuid/cancel", cancellers, invoiceHandler.Cancel)

	invoices.Get("/:id", readers, invoiceHandler.GetByID)
	invoices.Post("/:id/stamp", writers, invoiceHandler.Stamp)
	invoices.Post("/:id/retry", writers, invoiceHandler.Retry)
	invoices.Get("/:id/xml", readers, invoiceHandler.DownloadXML)
	invoices.Get("/:id/pdf", readers, invoiceHandler.DownloadPDF)

	// Utilidades
	protected.Get("/rfc/:rfc/validate", readers, invoiceHandler.ValidateRFC)
}
