package alexa

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // legacy Signature header is SHA-1
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

// Signature headers.
const (
	HeaderCertChainURL = "SignatureCertChainUrl"
	HeaderSignature256 = "Signature-256"
	HeaderSignature    = "Signature"
)

const (
	certHost       = "s3.amazonaws.com"
	certPathPrefix = "/echo.api/"
	certSAN        = "echo-api.amazon.com"
	maxCertSize    = 1 << 20
)

var (
	ErrMissingSignature   = errors.New("missing signature headers")
	ErrInvalidCertURL     = errors.New("invalid signature certificate url")
	ErrInvalidCertificate = errors.New("invalid signature certificate")
	ErrInvalidSignature   = errors.New("request signature mismatch")
	ErrStaleTimestamp     = errors.New("request timestamp outside tolerance")
	ErrUnknownApplication = errors.New("unknown application id")
)

// Verifier checks that a request really comes from the platform. Each check
// is off unless enabled by an option.
type Verifier struct {
	checkSignature bool
	checkTimestamp bool
	tolerance      time.Duration
	appIDs         map[string]struct{}

	client *http.Client
	roots  *x509.CertPool
	now    func() time.Time
	certs  *certCache
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithSignatureCheck enables certificate chain and body signature verification.
func WithSignatureCheck(enabled bool) VerifierOption {
	return func(v *Verifier) { v.checkSignature = enabled }
}

// WithTimestampCheck enables the request timestamp window.
func WithTimestampCheck(enabled bool, tolerance time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.checkTimestamp = enabled
		if tolerance > 0 {
			v.tolerance = tolerance
		}
	}
}

// WithApplicationIDs restricts requests to the given skill ids. Blank ids are ignored.
func WithApplicationIDs(ids ...string) VerifierOption {
	return func(v *Verifier) {
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				v.appIDs[id] = struct{}{}
			}
		}
	}
}

// WithHTTPClient sets the client used to download certificate chains.
func WithHTTPClient(c *http.Client) VerifierOption {
	return func(v *Verifier) { v.client = c }
}

// WithRootCAs replaces the system roots used to verify certificate chains.
func WithRootCAs(pool *x509.CertPool) VerifierOption {
	return func(v *Verifier) { v.roots = pool }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier creates a Verifier.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		tolerance: 150 * time.Second,
		appIDs:    make(map[string]struct{}),
		client:    &http.Client{Timeout: 5 * time.Second},
		now:       time.Now,
		certs:     &certCache{entries: make(map[string]*x509.Certificate)},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enabled reports whether any check is active.
func (v *Verifier) Enabled() bool {
	return v.checkSignature || v.checkTimestamp || len(v.appIDs) > 0
}

// VerifySignature checks the signature headers against the raw body.
func (v *Verifier) VerifySignature(ctx context.Context, header http.Header, body []byte) error {
	if !v.checkSignature {
		return nil
	}

	certURL := header.Get(HeaderCertChainURL)
	hash, encoded := crypto.SHA256, header.Get(HeaderSignature256)
	if encoded == "" {
		hash, encoded = crypto.SHA1, header.Get(HeaderSignature)
	}
	if certURL == "" || encoded == "" {
		return ErrMissingSignature
	}

	sig, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if err := validateCertURL(certURL); err != nil {
		return err
	}

	cert, err := v.certificate(ctx, certURL)
	if err != nil {
		return err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: public key is not RSA", ErrInvalidCertificate)
	}

	var digest []byte
	if hash == crypto.SHA256 {
		sum := sha256.Sum256(body)
		digest = sum[:]
	} else {
		sum := sha1.Sum(body) //nolint:gosec
		digest = sum[:]
	}
	if err := rsa.VerifyPKCS1v15(pub, hash, digest, sig); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// VerifyEnvelope applies the timestamp and application id checks.
func (v *Verifier) VerifyEnvelope(env *RequestEnvelope) error {
	if v.checkTimestamp {
		ts, err := env.Time()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStaleTimestamp, err)
		}
		skew := v.now().Sub(ts)
		if skew < 0 {
			skew = -skew
		}
		if skew > v.tolerance {
			return fmt.Errorf("%w: skew %s", ErrStaleTimestamp, skew.Round(time.Second))
		}
	}

	if len(v.appIDs) > 0 {
		id := env.ApplicationID()
		if _, ok := v.appIDs[id]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownApplication, id)
		}
	}
	return nil
}

func validateCertURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCertURL, err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("%w: scheme %q", ErrInvalidCertURL, u.Scheme)
	}
	if !strings.EqualFold(u.Hostname(), certHost) {
		return fmt.Errorf("%w: host %q", ErrInvalidCertURL, u.Hostname())
	}
	if p := u.Port(); p != "" && p != "443" {
		return fmt.Errorf("%w: port %q", ErrInvalidCertURL, p)
	}
	if !strings.HasPrefix(path.Clean(u.Path), certPathPrefix) {
		return fmt.Errorf("%w: path %q", ErrInvalidCertURL, u.Path)
	}
	return nil
}

func (v *Verifier) certificate(ctx context.Context, certURL string) (*x509.Certificate, error) {
	now := v.now()
	if cert := v.certs.get(certURL, now); cert != nil {
		return cert, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertURL, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch certificate chain: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch certificate chain: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCertSize))
	if err != nil {
		return nil, fmt.Errorf("read certificate chain: %w", err)
	}

	cert, err := parseChain(data, v.roots, now)
	if err != nil {
		return nil, err
	}
	v.certs.put(certURL, cert)
	return cert, nil
}

// parseChain decodes a PEM chain and verifies the leaf for the platform SAN.
func parseChain(data []byte, roots *x509.CertPool, now time.Time) (*x509.Certificate, error) {
	var chain []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
		}
		chain = append(chain, cert)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no certificates in chain", ErrInvalidCertificate)
	}

	intermediates := x509.NewCertPool()
	for _, c := range chain[1:] {
		intermediates.AddCert(c)
	}
	leaf := chain[0]
	if _, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       certSAN,
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   now,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	return leaf, nil
}

// certCache keeps verified leaf certificates until they expire.
type certCache struct {
	mu      sync.Mutex
	entries map[string]*x509.Certificate
}

func (c *certCache) get(key string, now time.Time) *x509.Certificate {
	c.mu.Lock()
	defer c.mu.Unlock()
	cert, ok := c.entries[key]
	if !ok {
		return nil
	}
	if now.After(cert.NotAfter) {
		delete(c.entries, key)
		return nil
	}
	return cert
}

func (c *certCache) put(key string, cert *x509.Certificate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cert
}
