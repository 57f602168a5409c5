package server

import (
	"crypto/tls"
	"fmt"

	"github.com/muurk/canfix/internal/logging"
	"go.uber.org/zap"
)

// NewTLSConfig loads a certificate and key pair for the gateway listener.
func NewTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	logging.Info("TLS configuration created from files",
		zap.String("cert", certPath),
		zap.String("key", keyPath),
	)
	return NewTLSConfigFromCertificate(cert), nil
}

// NewTLSConfigFromCertificate returns a TLS 1.2+ server config for cert
func NewTLSConfigFromCertificate(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}
