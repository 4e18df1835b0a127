package proof

import (
	"context"
	"net"
	"time"

	"orgtrust/internal/domain"
)

// DNSChecker proves link ownership through a TXT record on the website's
// host carrying the ownership tag.
type DNSChecker struct {
	resolver *net.Resolver
	timeout  time.Duration
}

func NewDNSChecker(timeout time.Duration) *DNSChecker {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &DNSChecker{resolver: net.DefaultResolver, timeout: timeout}
}

// Check resolves TXT records for the website's host and looks for a tag
// naming the subject. A resolution failure is Undetermined, not a negative:
// the absence of an answer proves nothing.
func (c *DNSChecker) Check(ctx context.Context, website string, subject domain.OrgID) Outcome {
	u, err := normalizeWebsite(website)
	if err != nil || u.Hostname() == "" {
		return Undetermined
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.resolver.LookupTXT(ctx, u.Hostname())
	if err != nil {
		return Undetermined
	}
	for _, record := range records {
		if id, ok := parseOwnershipTag(record); ok {
			return outcomeFor(id, subject)
		}
	}
	// TXT records exist but none carries the tag.
	return Undetermined
}
