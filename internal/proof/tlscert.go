package proof

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
	"time"
)

// TLSChecker binds an expected legal name to an already-verified domain by
// inspecting the site's certificate. It is only meaningful after the link
// ownership proof succeeded; a certificate alone proves control of the
// domain, not of the registered identifier.
type TLSChecker struct {
	timeout time.Duration
}

func NewTLSChecker(timeout time.Duration) *TLSChecker {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &TLSChecker{timeout: timeout}
}

// Check opens a verified TLS connection to the website's host and requires
// the chain to be trusted, the certificate Organization to equal the
// expected legal name, and the Common Name (wildcard stripped) to match the
// site's hostname. Any failure is NotProven; there is no undetermined state
// for this channel because it only runs on sites already shown reachable.
func (c *TLSChecker) Check(ctx context.Context, website, expectedLegalName string) Outcome {
	u, err := normalizeWebsite(website)
	if err != nil || u.Hostname() == "" {
		return NotProven
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "443"
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.timeout},
		Config:    &tls.Config{ServerName: host},
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return NotProven
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return NotProven
	}
	subject := state.PeerCertificates[0].Subject

	if !containsFold(subject.Organization, expectedLegalName) {
		return NotProven
	}
	cn := strings.TrimPrefix(subject.CommonName, "*.")
	if cnURL, err := normalizeWebsite(cn); err == nil {
		cn = cnURL.Hostname()
	}
	if !strings.EqualFold(cn, host) {
		return NotProven
	}
	return Proven
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
