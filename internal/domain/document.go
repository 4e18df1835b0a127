package domain

import "strings"

// Kind tells which of the two document shapes an organization uses.
type Kind string

const (
	KindLegalEntity        Kind = "legalEntity"
	KindOrganizationalUnit Kind = "organizationalUnit"
	KindUnknown            Kind = "unknown"
)

// TrustClue is a document-embedded assertion of an external proof channel.
type TrustClue struct {
	Type  string `json:"type"`
	Proof string `json:"proof"`
}

// Contact is one entry of the document's contact list.
type Contact struct {
	Website string `json:"website"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Address carries the subset of the postal address the resolver surfaces.
type Address struct {
	Country string `json:"country"`
}

// LegalEntity is the document shape used by registered legal entities.
type LegalEntity struct {
	LegalName         string    `json:"legalName"`
	RegisteredAddress *Address  `json:"registeredAddress"`
	Contacts          []Contact `json:"contacts"`
}

// OrganizationalUnit is the document shape used by subsidiaries and units.
type OrganizationalUnit struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Address  *Address  `json:"address"`
	Contacts []Contact `json:"contacts"`
}

// Media holds document-declared assets.
type Media struct {
	Logo string `json:"logo"`
}

// OrganizationDocument is the parsed off-chain org document. Exactly one of
// LegalEntity or OrganizationalUnit is expected to be present.
type OrganizationDocument struct {
	LegalEntity        *LegalEntity        `json:"legalEntity,omitempty"`
	OrganizationalUnit *OrganizationalUnit `json:"organizationalUnit,omitempty"`
	Media              *Media              `json:"media,omitempty"`
	Trust              []TrustClue         `json:"trust,omitempty"`
}

// Kind derives the document shape.
func (d *OrganizationDocument) Kind() Kind {
	switch {
	case d == nil:
		return KindUnknown
	case d.LegalEntity != nil:
		return KindLegalEntity
	case d.OrganizationalUnit != nil:
		return KindOrganizationalUnit
	default:
		return KindUnknown
	}
}

// Directory is "legalEntity" for legal entities and the declared unit type
// for organizational units.
func (d *OrganizationDocument) Directory() string {
	switch d.Kind() {
	case KindLegalEntity:
		return string(KindLegalEntity)
	case KindOrganizationalUnit:
		if d.OrganizationalUnit.Type != "" {
			return d.OrganizationalUnit.Type
		}
	}
	return string(KindUnknown)
}

// Name returns the display name for the document's shape. The registry UI
// expects a placeholder rather than an empty string.
func (d *OrganizationDocument) Name() string {
	switch d.Kind() {
	case KindLegalEntity:
		if d.LegalEntity.LegalName != "" {
			return d.LegalEntity.LegalName
		}
	case KindOrganizationalUnit:
		if d.OrganizationalUnit.Name != "" {
			return d.OrganizationalUnit.Name
		}
	}
	return "Name is not defined"
}

// Country returns the registered country, or "" when undeclared.
func (d *OrganizationDocument) Country() string {
	switch d.Kind() {
	case KindLegalEntity:
		if d.LegalEntity.RegisteredAddress != nil {
			return d.LegalEntity.RegisteredAddress.Country
		}
	case KindOrganizationalUnit:
		if d.OrganizationalUnit.Address != nil {
			return d.OrganizationalUnit.Address.Country
		}
	}
	return ""
}

// Logo returns the declared logo reference, or "".
func (d *OrganizationDocument) Logo() string {
	if d == nil || d.Media == nil {
		return ""
	}
	return d.Media.Logo
}

// Website returns the website of the first declared contact, or "".
func (d *OrganizationDocument) Website() string {
	var contacts []Contact
	switch d.Kind() {
	case KindLegalEntity:
		contacts = d.LegalEntity.Contacts
	case KindOrganizationalUnit:
		contacts = d.OrganizationalUnit.Contacts
	}
	if len(contacts) == 0 {
		return ""
	}
	return contacts[0].Website
}

// SocialClue returns the proof URI of the first trust clue declaring the
// given platform: the clue type must be "social" or the platform name, and
// its proof URI must mention the platform. Returns "" when no clue matches.
func (d *OrganizationDocument) SocialClue(platform string) string {
	if d == nil {
		return ""
	}
	for _, clue := range d.Trust {
		if clue.Type != "social" && clue.Type != platform {
			continue
		}
		if strings.Contains(clue.Proof, platform) {
			return clue.Proof
		}
	}
	return ""
}
