// token emite un JWT de desarrollo para llamar a la API.
//
// Uso: go run ./cmd/token <tenant_id> [rol] [location_id]
// Rol por defecto: biller. Usa JWT_SECRET, JWT_ISSUER y JWT_EXPIRATION_MINUTES de la configuración.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-api/pkg/config"
	"github.com/jhoicas/cfdi-api/pkg/jwt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Uso: token <tenant_id> [admin|biller|auditor] [location_id]")
		os.Exit(2)
	}
	tenantID := os.Args[1]
	role := jwt.RoleBiller
	if len(os.Args) > 2 {
		role = os.Args[2]
	}
	var locationID string
	if len(os.Args) > 3 {
		locationID = os.Args[3]
	}
	if !jwt.IsKnownRole(role) {
		fmt.Fprintf(os.Stderr, "Rol desconocido: %s\n", role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, uuid.NewString(), tenantID, locationID, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
