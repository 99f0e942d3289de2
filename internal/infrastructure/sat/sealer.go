package sat

import (
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
)

// Sealer sella cadenas originales.
type Sealer interface {
	Seal(original string) (string, error)
	CertificateNumber() string
	// Certificate certificado en Base64; vacío si el sellador no usa CSD.
	Certificate() string
}

// RSASealer sello RSA-SHA256 (PKCS#1 v1.5) con un CSD.
type RSASealer struct {
	key    *rsa.PrivateKey
	cert   *x509.Certificate
	number string
}

var _ Sealer = (*RSASealer)(nil)

// NewRSASealer construye el sellador a partir del certificado cargado.
func NewRSASealer(cert tls.Certificate) (*RSASealer, error) {
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("sat: certificado vacío")
	}
	key, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("sat: el certificado debe incluir llave privada RSA")
	}
	leaf := cert.Leaf
	if leaf == nil {
		var err error
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("sat: parsear certificado: %w", err)
		}
	}
	return &RSASealer{key: key, cert: leaf, number: CertificateNumber(leaf)}, nil
}

func (s *RSASealer) Seal(original string) (string, error) {
	h := sha256.Sum256([]byte(original))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, h[:])
	if err != nil {
		return "", fmt.Errorf("sat: sellar: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

func (s *RSASealer) CertificateNumber() string { return s.number }

func (s *RSASealer) Certificate() string {
	return base64.StdEncoding.EncodeToString(s.cert.Raw)
}

// DigestSealer sello HMAC-SHA256 con una llave compartida. Se usa cuando no hay CSD configurado.
type DigestSealer struct {
	key    []byte
	number string
}

var _ Sealer = (*DigestSealer)(nil)

// NewDigestSealer construye el sellador con la llave y el número de certificado a reportar.
func NewDigestSealer(key, certificateNumber string) *DigestSealer {
	return &DigestSealer{key: []byte(key), number: certificateNumber}
}

func (s *DigestSealer) Seal(original string) (string, error) {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(original))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (s *DigestSealer) CertificateNumber() string { return s.number }

func (s *DigestSealer) Certificate() string { return "" }

// Verify comprueba un sello producido por este sellador.
func (s *DigestSealer) Verify(original, seal string) bool {
	want, _ := s.Seal(original)
	return hmac.Equal([]byte(want), []byte(seal))
}
