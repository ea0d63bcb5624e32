package payment

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/crc32"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
)

// PayPal transmission headers.
const (
	HeaderAuthAlgo         = "PAYPAL-AUTH-ALGO"
	HeaderCertURL          = "PAYPAL-CERT-URL"
	HeaderTransmissionID   = "PAYPAL-TRANSMISSION-ID"
	HeaderTransmissionSig  = "PAYPAL-TRANSMISSION-SIG"
	HeaderTransmissionTime = "PAYPAL-TRANSMISSION-TIME"
)

var requiredHeaders = []string{
	HeaderAuthAlgo,
	HeaderCertURL,
	HeaderTransmissionID,
	HeaderTransmissionSig,
	HeaderTransmissionTime,
}

// Verification errors. All of them mean the request is rejected.
var (
	ErrMissingHeaders       = errors.New("payment: missing transmission headers")
	ErrUntrustedCertURL     = errors.New("payment: untrusted certificate url")
	ErrUnsupportedAlgorithm = errors.New("payment: unsupported signing algorithm")
	ErrInvalidSignature     = errors.New("payment: invalid transmission signature")
	ErrInsecureNotAllowed   = errors.New("payment: insecure verification is not allowed")
)

// Verifier authenticates an inbound notification. A nil error means the
// request is authentic.
type Verifier interface {
	Verify(ctx context.Context, body []byte, headers http.Header) error
}

// Transmission carries the provenance headers of one delivery.
type Transmission struct {
	AuthAlgo string
	CertURL  string
	ID       string
	Sig      string
	Time     string
}

// HeaderVerifier only checks that every transmission header is present.
type HeaderVerifier struct{}

// Verify implements Verifier.
func (HeaderVerifier) Verify(_ context.Context, _ []byte, headers http.Header) error {
	_, err := ReadTransmission(headers)
	return err
}

// ReadTransmission extracts the transmission headers, failing when any is blank.
func ReadTransmission(headers http.Header) (Transmission, error) {
	missing := lo.Filter(requiredHeaders, func(name string, _ int) bool {
		return strings.TrimSpace(headers.Get(name)) == ""
	})
	if len(missing) > 0 {
		return Transmission{}, fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}
	return Transmission{
		AuthAlgo: strings.TrimSpace(headers.Get(HeaderAuthAlgo)),
		CertURL:  strings.TrimSpace(headers.Get(HeaderCertURL)),
		ID:       strings.TrimSpace(headers.Get(HeaderTransmissionID)),
		Sig:      strings.TrimSpace(headers.Get(HeaderTransmissionSig)),
		Time:     strings.TrimSpace(headers.Get(HeaderTransmissionTime)),
	}, nil
}

// InsecureVerifier accepts any request carrying the transmission headers.
// It is only for local development.
type InsecureVerifier struct {
	HeaderVerifier
}

// NewInsecureVerifier refuses to build the verifier unless allowed.
func NewInsecureVerifier(allowed bool) (InsecureVerifier, error) {
	if !allowed {
		return InsecureVerifier{}, ErrInsecureNotAllowed
	}
	return InsecureVerifier{}, nil
}

// CertSource returns the certificate chain published at certURL, leaf first.
type CertSource interface {
	Certificates(ctx context.Context, certURL string) ([]*x509.Certificate, error)
}

// CertificateVerifier checks the RSA-SHA256 transmission signature against
// the certificate PayPal publishes at the cert URL.
type CertificateVerifier struct {
	WebhookID    string
	Separator    string
	AllowedHosts []string
	Certs        CertSource
	// Roots anchors the chain check. Nil uses the system pool.
	Roots *x509.CertPool
	Now   func() time.Time
}

// Verify implements Verifier.
func (v CertificateVerifier) Verify(ctx context.Context, body []byte, headers http.Header) error {
	tx, err := ReadTransmission(headers)
	if err != nil {
		return err
	}
	if v.Certs == nil || v.WebhookID == "" {
		return errors.New("payment: certificate verifier not configured")
	}
	if err := v.checkCertURL(tx.CertURL); err != nil {
		return err
	}
	algo, err := signatureAlgorithm(tx.AuthAlgo)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(tx.Sig)
	if err != nil {
		return fmt.Errorf("%w: signature is not base64", ErrInvalidSignature)
	}
	chain, err := v.Certs.Certificates(ctx, tx.CertURL)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	if len(chain) == 0 {
		return fmt.Errorf("load certificate: empty chain")
	}
	leaf := chain[0]
	if err := v.checkChain(chain); err != nil {
		return err
	}
	msg := SignedMessage(tx, v.WebhookID, v.separator(), body)
	if err := leaf.CheckSignature(algo, []byte(msg), sig); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// SignedMessage builds the string PayPal signs: transmission id, time,
// webhook id and the decimal CRC32 of the body joined by sep.
func SignedMessage(tx Transmission, webhookID, sep string, body []byte) string {
	crc := crc32.ChecksumIEEE(body)
	return strings.Join([]string{tx.ID, tx.Time, webhookID, fmt.Sprintf("%d", crc)}, sep)
}

func (v CertificateVerifier) separator() string {
	if v.Separator == "" {
		return "|"
	}
	return v.Separator
}

func (v CertificateVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v CertificateVerifier) checkCertURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUntrustedCertURL, err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("%w: scheme %q", ErrUntrustedCertURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if !lo.ContainsBy(v.AllowedHosts, func(allowed string) bool {
		return strings.EqualFold(strings.TrimSpace(allowed), host)
	}) {
		return fmt.Errorf("%w: host %q", ErrUntrustedCertURL, host)
	}
	return nil
}

func (v CertificateVerifier) checkChain(chain []*x509.Certificate) error {
	now := v.now()
	leaf := chain[0]
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return fmt.Errorf("%w: certificate outside validity window", ErrInvalidSignature)
	}
	intermediates := x509.NewCertPool()
	for _, c := range chain[1:] {
		intermediates.AddCert(c)
	}
	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:         v.Roots,
		Intermediates: intermediates,
		CurrentTime:   now,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return fmt.Errorf("%w: certificate chain: %v", ErrInvalidSignature, err)
	}
	return nil
}

func signatureAlgorithm(authAlgo string) (x509.SignatureAlgorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(authAlgo)) {
	case "SHA256WITHRSA":
		return x509.SHA256WithRSA, nil
	default:
		return x509.UnknownSignatureAlgorithm, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, authAlgo)
	}
}
