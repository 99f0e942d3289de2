package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles de la API de facturación.
const (
	RoleAdmin   = "admin"   // emite, timbra y cancela
	RoleBiller  = "biller"  // emite y timbra
	RoleAuditor = "auditor" // solo consulta
)

// Claims incluye los claims estándar JWT más el tenant (emisor) y la sucursal.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"user_id"`
	TenantID   string `json:"tenant_id"`
	LocationID string `json:"location_id,omitempty"`
	Role       string `json:"role"`
}

// Generate genera un token JWT firmado (HS256).
func Generate(secret, userID, tenantID, locationID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:     userID,
		TenantID:   tenantID,
		LocationID: locationID,
		Role:       role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve sus claims.
// Retorna error si el token es inválido, expirado, con firma incorrecta o sin tenant.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.TenantID == "" {
		return nil, fmt.Errorf("jwt: token sin tenant_id")
	}
	return claims, nil
}

// ReaderRoles roles que pueden consultar comprobantes.
func ReaderRoles() []string { return []string{RoleAdmin, RoleBiller, RoleAuditor} }

// WriterRoles roles que pueden crear, timbrar y reintentar.
func WriterRoles() []string { return []string{RoleAdmin, RoleBiller} }

// CancelRoles roles que pueden cancelar ante el SAT.
func CancelRoles() []string { return []string{RoleAdmin} }

// IsKnownRole indica si role es uno de los roles de la API.
func IsKnownRole(role string) bool {
	for _, r := range ReaderRoles() {
		if r == role {
			return true
		}
	}
	return false
}
