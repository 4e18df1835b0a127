package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"orgtrust/internal/domain"
)

const wordSize = 32

// selector returns the 4-byte method selector for a canonical signature.
func selector(signature string) string {
	return "0x" + hex.EncodeToString(keccak([]byte(signature))[:4])
}

// eventTopic returns the topic0 hash for a canonical event signature.
func eventTopic(signature string) string {
	return "0x" + hex.EncodeToString(keccak([]byte(signature)))
}

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// callData builds eth_call input: selector followed by 32-byte words.
func callData(sel string, words ...[wordSize]byte) string {
	var b strings.Builder
	b.WriteString(sel)
	for _, w := range words {
		b.WriteString(hex.EncodeToString(w[:]))
	}
	return b.String()
}

// returnData holds decoded eth_call output as a flat sequence of words plus
// the raw bytes for dynamic-section reads.
type returnData struct {
	raw []byte
}

func parseReturnData(hexData string) (returnData, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexData, "0x"))
	if err != nil {
		return returnData{}, fmt.Errorf("decode return data: %w", err)
	}
	if len(raw)%wordSize != 0 {
		return returnData{}, fmt.Errorf("return data length %d not word-aligned", len(raw))
	}
	return returnData{raw: raw}, nil
}

func (d returnData) words() int {
	return len(d.raw) / wordSize
}

func (d returnData) word(i int) ([]byte, error) {
	if (i+1)*wordSize > len(d.raw) {
		return nil, fmt.Errorf("return data too short: want word %d of %d", i, d.words())
	}
	return d.raw[i*wordSize : (i+1)*wordSize], nil
}

func (d returnData) orgID(i int) (domain.OrgID, error) {
	w, err := d.word(i)
	if err != nil {
		return domain.OrgID{}, err
	}
	var id domain.OrgID
	copy(id[:], w)
	return id, nil
}

func (d returnData) hash(i int) (string, error) {
	w, err := d.word(i)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(w), nil
}

func (d returnData) address(i int) (string, error) {
	w, err := d.word(i)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(w[12:]), nil
}

func (d returnData) boolean(i int) (bool, error) {
	w, err := d.word(i)
	if err != nil {
		return false, err
	}
	return w[wordSize-1] != 0, nil
}

func (d returnData) bigInt(i int) (*big.Int, error) {
	w, err := d.word(i)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(w), nil
}

// index converts a node-supplied offset or length word into an int, rejecting
// anything outside the payload. Words come from untrusted return data, so a
// value above int64 or past the buffer must fail rather than wrap negative.
func (d returnData) index(v *big.Int, what string) (int, error) {
	if !v.IsInt64() || v.Int64() < 0 || v.Int64() > int64(len(d.raw)) {
		return 0, fmt.Errorf("%s %s out of range", what, v)
	}
	return int(v.Int64()), nil
}

// str reads a dynamic string whose offset word sits at index i.
func (d returnData) str(i int) (string, error) {
	off, err := d.bigInt(i)
	if err != nil {
		return "", err
	}
	start, err := d.index(off, "string offset")
	if err != nil {
		return "", err
	}
	if start+wordSize > len(d.raw) {
		return "", fmt.Errorf("string offset %d out of range", start)
	}
	lenWord := new(big.Int).SetBytes(d.raw[start : start+wordSize])
	length, err := d.index(lenWord, "string length")
	if err != nil {
		return "", err
	}
	dataStart := start + wordSize
	if dataStart+length > len(d.raw) {
		return "", fmt.Errorf("string of length %d out of range", length)
	}
	return string(d.raw[dataStart : dataStart+length]), nil
}

// orgIDSlice reads a dynamic bytes32[] whose offset word sits at index i.
func (d returnData) orgIDSlice(i int) ([]domain.OrgID, error) {
	off, err := d.bigInt(i)
	if err != nil {
		return nil, err
	}
	byteStart, err := d.index(off, "slice offset")
	if err != nil {
		return nil, err
	}
	start := byteStart / wordSize
	count, err := d.bigInt(start)
	if err != nil {
		return nil, err
	}
	if !count.IsInt64() || count.Int64() < 0 || count.Int64() > int64(d.words()) {
		return nil, fmt.Errorf("slice length %s out of range", count)
	}
	n := int(count.Int64())
	ids := make([]domain.OrgID, 0, n)
	for j := 0; j < n; j++ {
		id, err := d.orgID(start + 1 + j)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
