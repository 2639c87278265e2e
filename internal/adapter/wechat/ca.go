package wechat

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

// CAFileName holds the capture proxy's certificate and private key. It lives
// next to the WeChat config file and is created on first use.
const CAFileName = "wechat_capture_ca.pem"

const caValidity = 2 * 365 * 24 * time.Hour

// CAPath returns where the capture CA for configFile is kept.
func CAPath(configFile string) string {
	return filepath.Join(filepath.Dir(configFile), CAFileName)
}

// loadOrCreateCA reads the CA at path, generating and saving a new one when
// the file does not exist yet.
func loadOrCreateCA(path string) (tls.Certificate, []byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data, err = generateCA(time.Now())
		if err != nil {
			return tls.Certificate{}, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return tls.Certificate{}, nil, fmt.Errorf("create ca dir: %w", err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return tls.Certificate{}, nil, fmt.Errorf("write ca: %w", err)
		}
	} else if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("read ca: %w", err)
	}

	ca, err := tls.X509KeyPair(data, data)
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("parse ca %s: %w", path, err)
	}
	ca.Leaf, err = x509.ParseCertificate(ca.Certificate[0])
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("parse ca %s: %w", path, err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ca.Certificate[0]})
	return ca, certPEM, nil
}

// generateCA returns a PEM bundle with a fresh self-signed CA certificate
// followed by its RSA key.
func generateCA(now time.Time) ([]byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate ca key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generate ca serial: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "newsletter-scrapers capture CA",
			Organization: []string{"newsletter-scrapers"},
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(caValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("create ca certificate: %w", err)
	}

	out := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	out = append(out, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})...)
	return out, nil
}
