// Package sat contiene catálogos y validaciones alineados al Anexo 20 (CFDI 4.0)
// del SAT (México). Solo se incluyen las claves que usa el motor de emisión.
package sat

import "strings"

// =============================================================================
// c_TipoDeComprobante
// =============================================================================

const (
	TypeIncome   = "I" // Ingreso
	TypeExpense  = "E" // Egreso (nota de crédito)
	TypePayment  = "P" // Pago
	TypeTransfer = "T" // Traslado
)

// ValidComprobanteTypes tipos de comprobante admitidos.
var ValidComprobanteTypes = map[string]bool{
	TypeIncome: true, TypeExpense: true, TypePayment: true, TypeTransfer: true,
}

// =============================================================================
// c_MetodoPago
// =============================================================================

const (
	PaymentMethodPUE = "PUE" // Pago en una sola exhibición
	PaymentMethodPPD = "PPD" // Pago en parcialidades o diferido
)

// ValidPaymentMethods métodos de pago admitidos.
var ValidPaymentMethods = map[string]bool{
	PaymentMethodPUE: true,
	PaymentMethodPPD: true,
}

// =============================================================================
// c_FormaPago
// =============================================================================

const (
	PaymentFormCash         = "01" // Efectivo
	PaymentFormCheck        = "02" // Cheque nominativo
	PaymentFormTransfer     = "03" // Transferencia electrónica de fondos
	PaymentFormCreditCard   = "04" // Tarjeta de crédito
	PaymentFormEWallet      = "05" // Monedero electrónico
	PaymentFormVouchers     = "08" // Vales de despensa
	PaymentFormCompensation = "17" // Compensación
	PaymentFormDebitCard    = "28" // Tarjeta de débito
	PaymentFormServiceCard  = "29" // Tarjeta de servicios
	PaymentFormToBeDefined  = "99" // Por definir
)

// ValidPaymentForms formas de pago admitidas.
var ValidPaymentForms = map[string]bool{
	PaymentFormCash: true, PaymentFormCheck: true, PaymentFormTransfer: true,
	PaymentFormCreditCard: true, PaymentFormEWallet: true, PaymentFormVouchers: true,
	PaymentFormCompensation: true, PaymentFormDebitCard: true, PaymentFormServiceCard: true,
	PaymentFormToBeDefined: true,
}

// =============================================================================
// c_UsoCFDI
// =============================================================================

const (
	UseGoodsAcquisition = "G01"  // Adquisición de mercancías
	UseReturns          = "G02"  // Devoluciones, descuentos o bonificaciones
	UseGeneralExpenses  = "G03"  // Gastos en general
	UseConstruction     = "I01"  // Construcciones
	UseOfficeEquipment  = "I02"  // Mobiliario y equipo de oficina
	UseMedicalFees      = "D01"  // Honorarios médicos, dentales y gastos hospitalarios
	UseNoTaxEffects     = "S01"  // Sin efectos fiscales
	UsePayments         = "CP01" // Pagos
	UsePayroll          = "CN01" // Nómina
)

// ValidCFDIUses usos de CFDI admitidos.
var ValidCFDIUses = map[string]bool{
	UseGoodsAcquisition: true, UseReturns: true, UseGeneralExpenses: true,
	UseConstruction: true, UseOfficeEquipment: true, UseMedicalFees: true,
	UseNoTaxEffects: true, UsePayments: true, UsePayroll: true,
}

// =============================================================================
// c_RegimenFiscal
// =============================================================================

const (
	RegimeGeneralCompanies = "601" // General de Ley Personas Morales
	RegimeNonProfit        = "603" // Personas Morales con Fines no Lucrativos
	RegimeSalaried         = "605" // Sueldos y Salarios
	RegimeLeasing          = "606" // Arrendamiento
	RegimeNoTaxObligations = "616" // Sin obligaciones fiscales
	RegimeBusiness         = "612" // Personas Físicas con Actividades Empresariales y Profesionales
	RegimePlatforms        = "625" // Plataformas Tecnológicas
	RegimeRESICO           = "626" // Régimen Simplificado de Confianza
)

// ValidTaxRegimes regímenes fiscales admitidos (emisor y receptor).
var ValidTaxRegimes = map[string]bool{
	RegimeGeneralCompanies: true, RegimeNonProfit: true, RegimeSalaried: true,
	RegimeLeasing: true, RegimeNoTaxObligations: true, RegimeBusiness: true,
	RegimePlatforms: true, RegimeRESICO: true,
}

// Regímenes por tipo de persona: moral (RFC de 12) y física (RFC de 13).
var (
	legalEntityRegimes = map[string]bool{
		RegimeGeneralCompanies: true, RegimeNonProfit: true, RegimeRESICO: true,
	}
	individualRegimes = map[string]bool{
		RegimeSalaried: true, RegimeLeasing: true, RegimeNoTaxObligations: true,
		RegimeBusiness: true, RegimePlatforms: true, RegimeRESICO: true,
	}
)

// =============================================================================
// c_Impuesto y c_TipoFactor
// =============================================================================

const (
	TaxISR  = "001"
	TaxIVA  = "002"
	TaxIEPS = "003"

	FactorRate   = "Tasa"
	FactorQuota  = "Cuota"
	FactorExempt = "Exento"
)

// ValidTaxCodes claves de impuesto admitidas.
var ValidTaxCodes = map[string]bool{TaxISR: true, TaxIVA: true, TaxIEPS: true}

// ValidFactorTypes tipos de factor admitidos.
var ValidFactorTypes = map[string]bool{FactorRate: true, FactorQuota: true, FactorExempt: true}

// Unidades y claves genéricas usadas cuando el colaborador no envía una.
const (
	UnitPiece    = "H87" // Pieza
	UnitService  = "E48" // Unidad de servicio
	UnitActivity = "ACT" // Actividad

	ProductCodeGeneric = "01010101" // No existe en el catálogo
)

// ObjectTaxable clave c_ObjetoImp "Sí objeto de impuesto".
const (
	ObjectNotTaxable = "01"
	ObjectTaxable    = "02"
)

// RFC genéricos.
const (
	RFCGenericNational = "XAXX010101000" // Público en general
	RFCGenericForeign  = "XEXX010101000" // Residente en el extranjero
)

// =============================================================================
// c_MotivoCancelacion
// =============================================================================

// CancellationReason clave de motivo de cancelación.
type CancellationReason string

const (
	CancelWithRelation    CancellationReason = "01" // Comprobante emitido con errores con relación
	CancelWithoutRelation CancellationReason = "02" // Comprobante emitido con errores sin relación
	CancelNotCarriedOut   CancellationReason = "03" // No se llevó a cabo la operación
	CancelGlobalInvoice   CancellationReason = "04" // Operación nominativa relacionada en una factura global
)

// alias aceptados por la API además de la clave numérica.
var cancellationAliases = map[string]CancellationReason{
	"issued in error with relation": CancelWithRelation,
	"issued with errors":            CancelWithoutRelation,
	"operation not carried out":     CancelNotCarriedOut,
	"global invoice correction":     CancelGlobalInvoice,
}

// ParseCancellationReason normaliza una clave o alias de motivo de cancelación.
// Devuelve false si el valor no pertenece al catálogo cerrado.
func ParseCancellationReason(s string) (CancellationReason, bool) {
	v := strings.TrimSpace(s)
	switch CancellationReason(v) {
	case CancelWithRelation, CancelWithoutRelation, CancelNotCarriedOut, CancelGlobalInvoice:
		return CancellationReason(v), true
	}
	if r, ok := cancellationAliases[strings.ToLower(v)]; ok {
		return r, true
	}
	return "", false
}

// Description texto oficial del motivo.
func (r CancellationReason) Description() string {
	switch r {
	case CancelWithRelation:
		return "Comprobante emitido con errores con relación"
	case CancelWithoutRelation:
		return "Comprobante emitido con errores sin relación"
	case CancelNotCarriedOut:
		return "No se llevó a cabo la operación"
	case CancelGlobalInvoice:
		return "Operación nominativa relacionada en una factura global"
	default:
		return ""
	}
}

// VerificationURL URL pública de verificación de CFDI (va en el QR de la representación impresa).
const VerificationURL = "https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx"
