package proof

import (
	"net/url"
	"regexp"
	"strings"

	"orgtrust/internal/domain"
)

// Outcome is the tri-state result of one proof check. Undetermined means the
// underlying lookup itself failed and must never be read as a confirmed
// negative; scoring collapses it to "not proven".
type Outcome int

const (
	Undetermined Outcome = iota
	NotProven
	Proven
)

func (o Outcome) String() string {
	switch o {
	case Proven:
		return "proven"
	case NotProven:
		return "not proven"
	default:
		return "undetermined"
	}
}

// Bool collapses the outcome for scoring.
func (o Outcome) Bool() bool {
	return o == Proven
}

// outcomeFor compares a claimed identifier against the subject.
func outcomeFor(found domain.OrgID, subject domain.OrgID) Outcome {
	if found == subject {
		return Proven
	}
	return NotProven
}

// ownershipTag is the marker organizations publish in TXT records and the
// /org.id well-known file.
const ownershipTag = "orgid="

// parseOwnershipTag extracts an identifier from a published proof token of
// the form "orgid=<id>", tolerating the legacy did:orgid wrapper.
func parseOwnershipTag(token string) (domain.OrgID, bool) {
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, ownershipTag) {
		return domain.OrgID{}, false
	}
	id, err := domain.ParseOrgID(strings.TrimPrefix(token, ownershipTag))
	if err != nil {
		return domain.OrgID{}, false
	}
	return id, true
}

// orgidPattern matches the fixed-width hex form of an identifier embedded in
// free text, as used by social post proofs.
var orgidPattern = regexp.MustCompile(`0x[0-9a-fA-F]{64}`)

// findOrgID scans free text for an embedded identifier.
func findOrgID(text string) (domain.OrgID, bool) {
	match := orgidPattern.FindString(text)
	if match == "" {
		return domain.OrgID{}, false
	}
	id, err := domain.ParseOrgID(match)
	if err != nil {
		return domain.OrgID{}, false
	}
	return id, true
}

// normalizeWebsite turns a bare domain into a URL, defaulting to https.
func normalizeWebsite(website string) (*url.URL, error) {
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	return url.Parse(website)
}
