package sat

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Atributos que no forman parte de la cadena original del comprobante.
var excludedAttrs = map[string]bool{
	"Sello":       true,
	"Certificado": true,
}

// Nodos cuyo contenido se excluye (el timbre tiene su propia cadena).
var excludedElements = map[string]bool{
	"Complemento": true,
	"Addenda":     true,
}

// OriginalString deriva la cadena original del comprobante a partir de su XML:
// valores de atributos en orden de documento, separados por "|", entre "||".
// Los espacios se normalizan y los valores vacíos se omiten.
func OriginalString(xmlBytes []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return "", fmt.Errorf("sat: parsear comprobante: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("sat: comprobante sin raíz")
	}
	var fields []string
	collect(root, &fields)
	return "||" + strings.Join(fields, "|") + "||", nil
}

func collect(el *etree.Element, fields *[]string) {
	for _, a := range el.Attr {
		if a.Space == "xmlns" || a.Key == "xmlns" || a.Space == "xsi" || excludedAttrs[a.Key] {
			continue
		}
		if v := normalizeSpaces(a.Value); v != "" {
			*fields = append(*fields, v)
		}
	}
	for _, child := range el.ChildElements() {
		if excludedElements[child.Tag] {
			continue
		}
		collect(child, fields)
	}
}

// TFDOriginalString cadena original del Timbre Fiscal Digital 1.1.
func TFDOriginalString(fiscalID, stampedAt, providerRFC, issuerSeal, satCertificateNumber string) string {
	parts := []string{TFDVersion, fiscalID, stampedAt, providerRFC, issuerSeal, satCertificateNumber}
	for i := range parts {
		parts[i] = normalizeSpaces(parts[i])
	}
	return "||" + strings.Join(parts, "|") + "||"
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
