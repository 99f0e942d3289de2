// Package sat implementa un PAC local para CFDI 4.0: construye el XML del
// comprobante, deriva la cadena original, sella, asigna el UUID e inyecta el
// Timbre Fiscal Digital 1.1.
package sat

// Namespaces y esquemas del Anexo 20.
const (
	NsCFDI = "http://www.sat.gob.mx/cfd/4"
	NsTFD  = "http://www.sat.gob.mx/TimbreFiscalDigital"
	NsXsi  = "http://www.w3.org/2001/XMLSchema-instance"

	schemaLocationCFDI = "http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
	schemaLocationTFD  = "http://www.sat.gob.mx/TimbreFiscalDigital http://www.sat.gob.mx/sitio_internet/cfd/TimbreFiscalDigital/TimbreFiscalDigitalv11.xsd"
)

const (
	CFDIVersion = "4.0"
	TFDVersion  = "1.1"

	// Fecha sin zona horaria, hora local del lugar de expedición.
	DateLayout = "2006-01-02T15:04:05"

	// Exportacion: 01 = No aplica.
	exportNotApplicable = "01"

	// Prefijo del nodo Addenda con los digestos del timbrado local.
	addendaTag = "pac:Digestos"
	nsAddenda  = "urn:cfdi-api:pac:digestos"
)
