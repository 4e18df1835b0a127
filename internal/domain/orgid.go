package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// OrgID is the 32-byte registry handle of an organization. The zero value is
// the registry's "no parent" sentinel.
type OrgID [32]byte

// ZeroOrgID is the all-zero sentinel used by the registry for "no parent".
var ZeroOrgID OrgID

const didPrefix = "did:orgid:"

// ParseOrgID decodes the textual form of an identifier: a 0x-prefixed,
// case-insensitive 64-digit hex string, optionally wrapped in the legacy
// DID prefix.
func ParseOrgID(s string) (OrgID, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, didPrefix)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return OrgID{}, fmt.Errorf("orgid %q: missing 0x prefix", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return OrgID{}, fmt.Errorf("orgid %q: %w", s, err)
	}
	if len(raw) != 32 {
		return OrgID{}, fmt.Errorf("orgid %q: want 32 bytes, got %d", s, len(raw))
	}
	var id OrgID
	copy(id[:], raw)
	return id, nil
}

// MustOrgID is a test/fixture helper that panics on malformed input.
func MustOrgID(s string) OrgID {
	id, err := ParseOrgID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id OrgID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// DID renders the identifier in its did:orgid form.
func (id OrgID) DID() string {
	return didPrefix + id.String()
}

// IsZero reports whether the identifier is the no-parent sentinel.
func (id OrgID) IsZero() bool {
	return id == ZeroOrgID
}

// MarshalText renders the identifier in its 0x hex form for JSON payloads.
func (id OrgID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *OrgID) UnmarshalText(text []byte) error {
	parsed, err := ParseOrgID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
