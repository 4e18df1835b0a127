package proof

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"orgtrust/internal/domain"
)

// wellKnownPath is the file organizations publish at their site root as the
// fallback ownership proof.
const wellKnownPath = "/org.id"

// WebsiteChecker proves link ownership through the /org.id well-known file.
type WebsiteChecker struct {
	client *http.Client
}

func NewWebsiteChecker(timeout time.Duration) *WebsiteChecker {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &WebsiteChecker{client: &http.Client{Timeout: timeout}}
}

// Check fetches <site>/org.id and applies the same tag check as the DNS
// channel. The file body may be the bare identifier or the tagged form.
func (c *WebsiteChecker) Check(ctx context.Context, website string, subject domain.OrgID) Outcome {
	u, err := normalizeWebsite(website)
	if err != nil {
		return Undetermined
	}
	u.Path = wellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Undetermined
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Undetermined
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Undetermined
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return Undetermined
	}
	body := strings.TrimSpace(string(raw))

	if id, ok := parseOwnershipTag(body); ok {
		return outcomeFor(id, subject)
	}
	if id, err := domain.ParseOrgID(body); err == nil {
		return outcomeFor(id, subject)
	}
	return NotProven
}

// ownershipChannel is one way of proving control of a link.
type ownershipChannel interface {
	Check(ctx context.Context, website string, subject domain.OrgID) Outcome
}

// LinkChecker combines the DNS and website channels into the single
// ownership-of-link proof.
type LinkChecker struct {
	dns     ownershipChannel
	website ownershipChannel
}

func NewLinkChecker(dns *DNSChecker, website *WebsiteChecker) *LinkChecker {
	return &LinkChecker{dns: dns, website: website}
}

// Check tries DNS first and falls back to the well-known file only when DNS
// was Undetermined. A TXT record that names a different identifier is a
// confirmed negative and must not be overridden by the weaker channel.
func (c *LinkChecker) Check(ctx context.Context, website string, subject domain.OrgID) Outcome {
	outcome := c.dns.Check(ctx, website, subject)
	if outcome != Undetermined {
		return outcome
	}
	return c.website.Check(ctx, website, subject)
}
