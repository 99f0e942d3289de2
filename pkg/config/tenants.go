package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// TenantConfig configuración fiscal de un emisor (tenant).
type TenantConfig struct {
	ID            string `mapstructure:"id"`
	RFC           string `mapstructure:"rfc"`
	Name          string `mapstructure:"name"`
	TaxRegime     string `mapstructure:"tax_regime"`
	PostalCode    string `mapstructure:"postal_code"`
	DefaultSeries string `mapstructure:"default_series"`
	CertPath      string `mapstructure:"cert_path"`
	KeyPath       string `mapstructure:"key_path"`
	CertPassword  string `mapstructure:"cert_password"`
}

// LoadTenants lee el archivo de emisores (YAML, JSON o TOML según extensión):
//
//	tenants:
//	  - id: acme
//	    rfc: EKU9003173C9
//	    name: ESCUELA KEMPER URGATE
//	    tax_regime: "601"
//	    postal_code: "64000"
func LoadTenants(path string) ([]TenantConfig, error) {
	if path == "" {
		return nil, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: leer %s: %w", path, err)
	}
	var out struct {
		Tenants []TenantConfig `mapstructure:"tenants"`
	}
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("config: decodificar tenants: %w", err)
	}
	seen := map[string]bool{}
	for i, t := range out.Tenants {
		if t.ID == "" || t.RFC == "" {
			return nil, fmt.Errorf("config: tenant %d sin id o rfc", i+1)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("config: tenant %q duplicado", t.ID)
		}
		seen[t.ID] = true
	}
	return out.Tenants, nil
}
