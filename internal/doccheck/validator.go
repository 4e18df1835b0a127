package doccheck

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/crypto/sha3"

	"orgtrust/internal/domain"
	"orgtrust/internal/fetch"
)

// Result is the outcome of checking an off-chain document against its
// on-chain hash commitment. Document may be nil (unfetchable or unparsable);
// Valid is false in every failure mode.
type Result struct {
	Raw          []byte
	Document     *domain.OrganizationDocument
	HashComputed string
	Valid        bool
}

// Validator fetches a document and verifies its hash commitment.
type Validator struct {
	fetcher fetch.Fetcher
}

func NewValidator(fetcher fetch.Fetcher) *Validator {
	return &Validator{fetcher: fetcher}
}

// Validate retrieves the document at uri and accepts it when the commitment
// matches either the keccak256 of the raw bytes or of the parsed document
// re-serialized with two-space indentation. Publishing tools reformat
// whitespace; both candidates are hashes of content a verifier can recompute,
// so accepting either does not weaken the commitment. Fetch and parse
// failures are reported through the zero-valued Result, not an error. The
// caller decides whether a missing document is fatal.
func (v *Validator) Validate(ctx context.Context, uri, commitment string) Result {
	raw, err := v.fetcher.Fetch(ctx, uri)
	if err != nil {
		return Result{}
	}

	result := Result{Raw: raw, HashComputed: Keccak256Hex(raw)}

	var doc domain.OrganizationDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return result
	}
	result.Document = &doc

	if hashEqual(result.HashComputed, commitment) {
		result.Valid = true
		return result
	}
	canonical, err := json.MarshalIndent(json.RawMessage(raw), "", "  ")
	if err != nil {
		return result
	}
	result.Valid = hashEqual(Keccak256Hex(canonical), commitment)
	return result
}

// Keccak256Hex returns the 0x-prefixed keccak256 digest of data, the hash
// function the registry commits documents with.
func Keccak256Hex(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func hashEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}
