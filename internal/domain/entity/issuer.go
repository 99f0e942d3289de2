package entity

// Issuer configuración fiscal del emisor de un tenant.
// Se pasa explícitamente a la creación de cada CFDI.
type Issuer struct {
	TenantID      string
	RFC           string
	Name          string
	TaxRegime     string
	PostalCode    string // LugarExpedicion por defecto
	DefaultSeries string
	// CSD del emisor; vacío = se usa el sellador global del PAC.
	CertPath     string
	KeyPath      string
	CertPassword string
}

// Party convierte la configuración en los datos del nodo cfdi:Emisor.
func (i *Issuer) Party() Party {
	return Party{RFC: i.RFC, Name: i.Name, TaxRegime: i.TaxRegime, PostalCode: i.PostalCode}
}
