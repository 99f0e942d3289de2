package sat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	pkgsat "github.com/jhoicas/cfdi-api/pkg/sat"
)

var _ billing.Certifier = (*LocalPAC)(nil)

// PACConfig configuración del PAC local.
type PACConfig struct {
	ProviderRFC          string        // RfcProvCertif
	SATCertificateNumber string        // NoCertificadoSAT
	SATSealKey           string        // llave del sello SAT
	Latency              time.Duration // latencia simulada por llamada (0 = ninguna)
	Location             *time.Location
}

// LocalPAC certificador en proceso: sella, timbra y lleva el registro de UUID emitidos.
//
// Flujo de Certify:
//
//	XML sin sello → cadena original → sello emisor → XML sellado → UUID → TFD → addenda
type LocalPAC struct {
	cfg       PACConfig
	builder   *XMLBuilder
	sealer    Sealer // sellador por defecto del emisor
	satSealer Sealer
	now       func() time.Time

	mu      sync.Mutex
	sealers map[string]Sealer // por RFC del emisor
	issued  map[string]bool   // UUID → cancelado
}

// NewLocalPAC construye el PAC. defaultSealer sella los comprobantes de emisores sin CSD propio.
func NewLocalPAC(cfg PACConfig, defaultSealer Sealer) *LocalPAC {
	if cfg.Location == nil {
		cfg.Location = mexicoCity()
	}
	if defaultSealer == nil {
		defaultSealer = NewDigestSealer(cfg.SATSealKey, cfg.SATCertificateNumber)
	}
	return &LocalPAC{
		cfg:       cfg,
		builder:   NewXMLBuilder(),
		sealer:    defaultSealer,
		satSealer: NewDigestSealer(cfg.SATSealKey, cfg.SATCertificateNumber),
		now:       time.Now,
		sealers:   map[string]Sealer{},
		issued:    map[string]bool{},
	}
}

// RegisterIssuer asocia el CSD de un emisor a su RFC.
func (p *LocalPAC) RegisterIssuer(rfc string, s Sealer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sealers[rfc] = s
}

// Certify sella y timbra el comprobante. Respeta la cancelación y el plazo de ctx.
func (p *LocalPAC) Certify(ctx context.Context, inv *entity.Invoice) (*billing.Certification, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if err := p.precheck(inv); err != nil {
		return nil, err
	}

	sealer := p.sealerFor(inv.Issuer.RFC)
	opts := BuildOptions{
		Date:              inv.IssuedAt.In(p.cfg.Location).Format(DateLayout),
		CertificateNumber: sealer.CertificateNumber(),
		Certificate:       sealer.Certificate(),
	}

	unsealed, err := p.builder.Build(inv, opts)
	if err != nil {
		return nil, err
	}
	original, err := OriginalString(unsealed)
	if err != nil {
		return nil, err
	}
	seal, err := sealer.Seal(original)
	if err != nil {
		return nil, err
	}
	opts.Seal = seal
	sealed, err := p.builder.Build(inv, opts)
	if err != nil {
		return nil, err
	}
	docDigest, err := CanonicalDigest(sealed)
	if err != nil {
		return nil, err
	}

	stampedAt := p.now().Truncate(time.Second)
	fiscalID := p.assignUUID()
	tfd := TFD{
		UUID:             fiscalID,
		StampedAt:        stampedAt.In(p.cfg.Location).Format(DateLayout),
		ProviderRFC:      p.cfg.ProviderRFC,
		IssuerSeal:       seal,
		SATCertificateNo: p.cfg.SATCertificateNumber,
	}
	tfd.SATSeal, err = p.satSealer.Seal(TFDOriginalString(tfd.UUID, tfd.StampedAt, tfd.ProviderRFC, tfd.IssuerSeal, tfd.SATCertificateNo))
	if err != nil {
		p.release(fiscalID)
		return nil, err
	}

	originalDigest := DigestString(original)
	stamped, err := InjectStamp(sealed, tfd, Digests{OriginalString: originalDigest, Document: docDigest})
	if err != nil {
		p.release(fiscalID)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		p.release(fiscalID)
		return nil, err
	}

	return &billing.Certification{
		FiscalID:             fiscalID,
		XML:                  stamped,
		Seal:                 seal,
		CertificateNumber:    sealer.CertificateNumber(),
		OriginalStringDigest: originalDigest,
		SATSeal:              tfd.SATSeal,
		SATCertificateNumber: tfd.SATCertificateNo,
		StampedAt:            stampedAt,
	}, nil
}

// CancelCertification cancela un UUID timbrado por este PAC.
func (p *LocalPAC) CancelCertification(ctx context.Context, fiscalID string, reason pkgsat.CancellationReason, replacementFiscalID string) (time.Time, error) {
	if err := p.wait(ctx); err != nil {
		return time.Time{}, err
	}
	if _, ok := pkgsat.ParseCancellationReason(string(reason)); !ok {
		return time.Time{}, fmt.Errorf("motivo de cancelación desconocido %q", reason)
	}
	if _, err := uuid.Parse(fiscalID); err != nil {
		return time.Time{}, fmt.Errorf("UUID %q mal formado", fiscalID)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancelled, ok := p.issued[fiscalID]; ok && cancelled {
		return time.Time{}, fmt.Errorf("UUID %s ya fue cancelado", fiscalID)
	}
	if replacementFiscalID != "" && replacementFiscalID == fiscalID {
		return time.Time{}, fmt.Errorf("el folio sustituto no puede ser el mismo UUID")
	}
	p.issued[fiscalID] = true
	return p.now(), nil
}

// precheck reglas que el PAC revisa antes de timbrar.
func (p *LocalPAC) precheck(inv *entity.Invoice) error {
	if inv == nil {
		return fmt.Errorf("comprobante nulo")
	}
	if inv.FiscalID != "" {
		return fmt.Errorf("el comprobante ya tiene UUID %s", inv.FiscalID)
	}
	if !pkgsat.ValidateRFC(inv.Issuer.RFC) {
		return fmt.Errorf("CFDI40131: RFC del emisor inválido")
	}
	totals := cfdi.CalculateTotals(inv.Concepts)
	if !totals.Total.Equal(inv.Total) {
		return fmt.Errorf("CFDI40119: Total %s no corresponde a los conceptos (%s)", inv.Total.StringFixed(2), totals.Total.StringFixed(2))
	}
	if inv.PlaceOfIssue == "" {
		return fmt.Errorf("CFDI40120: LugarExpedicion requerido")
	}
	return nil
}

func (p *LocalPAC) sealerFor(rfc string) Sealer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sealers[rfc]; ok {
		return s
	}
	return p.sealer
}

func (p *LocalPAC) assignUUID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		id := strings.ToUpper(uuid.NewString())
		if _, dup := p.issued[id]; !dup {
			p.issued[id] = false
			return id
		}
	}
}

func (p *LocalPAC) release(fiscalID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.issued, fiscalID)
}

func (p *LocalPAC) wait(ctx context.Context) error {
	if p.cfg.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.cfg.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func mexicoCity() *time.Location {
	if loc, err := time.LoadLocation("America/Mexico_City"); err == nil {
		return loc
	}
	return time.FixedZone("CST", -6*60*60)
}
