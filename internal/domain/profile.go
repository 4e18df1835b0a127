package domain

import "time"

// ParentSummary is the slice of a parent's freshly resolved profile stored on
// a subsidiary. It is sourced from resolution output, never from the ledger.
type ParentSummary struct {
	OrgID     OrgID  `json:"orgid"`
	Name      string `json:"name"`
	ProofsQty int    `json:"proofsQty"`
}

// Proofs holds the per-channel verification flags of a profile. Social
// platforms are recorded individually; any proven platform counts once
// toward the aggregate score.
type Proofs struct {
	Website        bool `json:"isWebsiteProved"`
	TLS            bool `json:"isSslProved"`
	Deposit        bool `json:"isLifProved"`
	SocialFacebook bool `json:"isSocialFBProved"`
	SocialTwitter  bool `json:"isSocialTWProved"`
}

// SocialAny reports whether any social platform proof succeeded.
func (p Proofs) SocialAny() bool {
	return p.SocialFacebook || p.SocialTwitter
}

// Count returns the trust score: the number of proven channels among
// website, TLS, deposit, and social-any. It is the only way ProofsQty may
// be computed.
func (p Proofs) Count() int {
	n := 0
	for _, ok := range []bool{p.Website, p.TLS, p.Deposit, p.SocialAny()} {
		if ok {
			n++
		}
	}
	return n
}

// Profile is the resolved, persisted view of one organization.
type Profile struct {
	OrgID             OrgID                 `json:"orgid"`
	Owner             string                `json:"owner"`
	Director          string                `json:"director"`
	State             bool                  `json:"state"`
	DirectorConfirmed bool                  `json:"directorConfirmed"`
	Kind              Kind                  `json:"orgidType"`
	Directory         string                `json:"directory"`
	Name              string                `json:"name"`
	Logo              string                `json:"logo,omitempty"`
	Country           string                `json:"country"`
	Subsidiaries      []OrgID               `json:"subsidiaries,omitempty"`
	Parent            *ParentSummary        `json:"parent,omitempty"`
	Proofs            Proofs                `json:"proofs"`
	ProofsQty         int                   `json:"proofsQty"`
	IsJSONValid       bool                  `json:"isJsonValid"`
	JSONHash          string                `json:"orgJsonHash"`
	JSONHashComputed  string                `json:"orgJsonHashComputed"`
	JSONURI           string                `json:"orgJsonUri"`
	Document          *OrganizationDocument `json:"jsonContent,omitempty"`
	CheckedAt         time.Time             `json:"checkedAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// Rescore recomputes ProofsQty from the proof flags. Callers mutating any
// flag must call it before handing the profile out.
func (p *Profile) Rescore() {
	p.ProofsQty = p.Proofs.Count()
}

// IsTopLevel reports whether the profile belongs to a top-level organization.
func (p *Profile) IsTopLevel() bool {
	return p.Parent == nil
}
