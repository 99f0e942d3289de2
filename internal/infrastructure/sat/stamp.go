package sat

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// TFD datos del tfd:TimbreFiscalDigital.
type TFD struct {
	UUID             string
	StampedAt        string // DateLayout
	ProviderRFC      string
	IssuerSeal       string
	SATCertificateNo string
	SATSeal          string
}

// Digests digestos que viajan en la addenda del comprobante.
type Digests struct {
	OriginalString string // SHA-256 de la cadena original
	Document       string // SHA-256 del comprobante sellado en forma canónica (C14N)
}

// InjectStamp agrega el timbre en cfdi:Complemento y la addenda con los digestos.
func InjectStamp(xmlBytes []byte, tfd TFD, digests Digests) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("sat: parsear comprobante: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("sat: comprobante sin raíz")
	}
	comp := root.SelectElement("cfdi:Complemento")
	if comp == nil {
		comp = root.CreateElement("cfdi:Complemento")
	}
	if comp.SelectElement("tfd:TimbreFiscalDigital") != nil {
		return nil, fmt.Errorf("sat: el comprobante ya tiene timbre")
	}

	el := comp.CreateElement("tfd:TimbreFiscalDigital")
	el.CreateAttr("xmlns:tfd", NsTFD)
	el.CreateAttr("xmlns:xsi", NsXsi)
	el.CreateAttr("xsi:schemaLocation", schemaLocationTFD)
	el.CreateAttr("Version", TFDVersion)
	el.CreateAttr("UUID", tfd.UUID)
	el.CreateAttr("FechaTimbrado", tfd.StampedAt)
	el.CreateAttr("RfcProvCertif", tfd.ProviderRFC)
	el.CreateAttr("SelloCFD", tfd.IssuerSeal)
	el.CreateAttr("NoCertificadoSAT", tfd.SATCertificateNo)
	el.CreateAttr("SelloSAT", tfd.SATSeal)

	addenda := root.SelectElement("cfdi:Addenda")
	if addenda == nil {
		addenda = root.CreateElement("cfdi:Addenda")
	}
	dg := addenda.CreateElement(addendaTag)
	dg.CreateAttr("xmlns:pac", nsAddenda)
	dg.CreateAttr("CadenaOriginal", digests.OriginalString)
	dg.CreateAttr("Comprobante", digests.Document)

	doc.Indent(2)
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("sat: serializar comprobante: %w", err)
	}
	return out.Bytes(), nil
}

// ReadStamp extrae el timbre de un comprobante ya timbrado.
func ReadStamp(xmlBytes []byte) (*TFD, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("sat: parsear comprobante: %w", err)
	}
	el := doc.FindElement("//tfd:TimbreFiscalDigital")
	if el == nil {
		return nil, fmt.Errorf("sat: comprobante sin timbre")
	}
	return &TFD{
		UUID:             el.SelectAttrValue("UUID", ""),
		StampedAt:        el.SelectAttrValue("FechaTimbrado", ""),
		ProviderRFC:      el.SelectAttrValue("RfcProvCertif", ""),
		IssuerSeal:       el.SelectAttrValue("SelloCFD", ""),
		SATCertificateNo: el.SelectAttrValue("NoCertificadoSAT", ""),
		SATSeal:          el.SelectAttrValue("SelloSAT", ""),
	}, nil
}

// DigestString SHA-256 en hexadecimal.
func DigestString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// CanonicalDigest SHA-256 (hex) del elemento raíz en forma canónica C14N.
func CanonicalDigest(xmlBytes []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return "", fmt.Errorf("sat: parsear comprobante: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("sat: comprobante sin raíz")
	}
	only := etree.NewDocument()
	only.SetRoot(root.Copy())
	raw, err := only.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("sat: serializar comprobante: %w", err)
	}
	canonical, err := canonicalizeXML(raw)
	if err != nil {
		return "", fmt.Errorf("sat: canonicalizar comprobante: %w", err)
	}
	h := sha256.Sum256(canonical)
	return hex.EncodeToString(h[:]), nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
