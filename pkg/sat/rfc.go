package sat

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// rfcPattern: 3 letras (persona moral) o 4 (persona física), incluyendo Ñ y &,
// fecha AAMMDD y homoclave de 3 caracteres. Solo mayúsculas.
var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// ValidateRFC indica si taxID es un RFC con estructura válida.
// Se normaliza a NFC antes de evaluar para aceptar una Ñ descompuesta (N + tilde combinante).
func ValidateRFC(taxID string) bool {
	if taxID == "" {
		return false
	}
	return rfcPattern.MatchString(norm.NFC.String(taxID))
}

// IsGenericRFC indica si el RFC es uno de los genéricos (público en general / extranjero).
func IsGenericRFC(taxID string) bool {
	return taxID == RFCGenericNational || taxID == RFCGenericForeign
}

// IsLegalEntity indica si el RFC corresponde a una persona moral (12 caracteres).
func IsLegalEntity(taxID string) bool {
	return len([]rune(norm.NFC.String(taxID))) == 12
}

// RegimeAppliesTo indica si el régimen fiscal corresponde al tipo de persona del RFC.
// 626 (RESICO) aplica a ambos.
func RegimeAppliesTo(regime, taxID string) bool {
	if IsLegalEntity(taxID) {
		return legalEntityRegimes[regime]
	}
	return individualRegimes[regime]
}
