package billing

import (
	"context"
	"time"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// Certification artefactos que devuelve el PAC al timbrar.
type Certification struct {
	FiscalID             string // UUID del Timbre Fiscal Digital
	XML                  []byte // Comprobante sellado y timbrado
	Seal                 string // Sello del emisor (SelloCFD)
	CertificateNumber    string // NoCertificado del emisor
	OriginalStringDigest string
	SATSeal              string
	SATCertificateNumber string
	StampedAt            time.Time
}

// Certifier frontera con el proveedor de certificación (PAC).
// Certify se invoca a lo sumo una vez por documento; la deduplicación la da el guard del ciclo de vida.
type Certifier interface {
	Certify(ctx context.Context, invoice *entity.Invoice) (*Certification, error)
	CancelCertification(ctx context.Context, fiscalID string, reason sat.CancellationReason, replacementFiscalID string) (time.Time, error)
}

// DocumentArchive almacena el XML timbrado (S3 o memoria). Devuelve la llave del objeto.
type DocumentArchive interface {
	Put(ctx context.Context, key string, xml []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// InvoicePDFGenerator genera la representación impresa del CFDI.
type InvoicePDFGenerator interface {
	Generate(invoice *entity.Invoice) ([]byte, error)
}
