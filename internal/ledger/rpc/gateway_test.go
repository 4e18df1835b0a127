package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgtrust/internal/domain"
	"orgtrust/internal/ledger"
)

var (
	orgA   = domain.MustOrgID("0x6d98103810d50b5e7d1e3343e4ad36c9a8bf0d4eaa1f2f0f7f33e04b69c3b86e")
	orgSub = domain.MustOrgID("0x2222222222222222222222222222222222222222222222222222222222222222")
)

// padWord left-pads b into one 32-byte word.
func padWord(b []byte) string {
	var w [wordSize]byte
	copy(w[wordSize-len(b):], b)
	return hex.EncodeToString(w[:])
}

// rightPad right-pads b to a word boundary, the dynamic-section layout.
func rightPad(b []byte) string {
	n := (len(b) + wordSize - 1) / wordSize * wordSize
	out := make([]byte, n)
	copy(out, b)
	return hex.EncodeToString(out)
}

func TestSelectors(t *testing.T) {
	// Fixed points of the keccak-based ABI hashing, checkable against any
	// Ethereum ABI tool.
	assert.Equal(t, "0xa9059cbb", selector("transfer(address,uint256)"))
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		eventTopic("Transfer(address,address,uint256)"))
}

func TestParseReturnData(t *testing.T) {
	t.Run("rejects non-aligned data", func(t *testing.T) {
		_, err := parseReturnData("0xabcdef")
		assert.Error(t, err)
	})

	t.Run("rejects malformed hex", func(t *testing.T) {
		_, err := parseReturnData("0xzz")
		assert.Error(t, err)
	})

	t.Run("empty data has zero words", func(t *testing.T) {
		data, err := parseReturnData("0x")
		require.NoError(t, err)
		assert.Equal(t, 0, data.words())
	})
}

func TestReturnDataDecoders(t *testing.T) {
	owner := strings.Repeat("11", 20)
	payload := "0x" +
		padWord(orgA[:]) +
		padWord(mustHex(owner)) +
		padWord([]byte{1}) +
		padWord(big.NewInt(1500).Bytes())
	data, err := parseReturnData(payload)
	require.NoError(t, err)

	id, err := data.orgID(0)
	require.NoError(t, err)
	assert.Equal(t, orgA, id)

	addr, err := data.address(1)
	require.NoError(t, err)
	assert.Equal(t, "0x"+owner, addr)

	flag, err := data.boolean(2)
	require.NoError(t, err)
	assert.True(t, flag)

	amount, err := data.bigInt(3)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), amount.Int64())

	_, err = data.word(4)
	assert.Error(t, err, "reads past the payload must fail")
}

// Offset and length words come straight from the node, so values that do not
// fit an int64 or point past the buffer must decode to an error, never a
// panic or a negative slice index.
func TestDynamicDecodersRejectHostileWords(t *testing.T) {
	allOnes := strings.Repeat("ff", wordSize)

	t.Run("string offset beyond int64", func(t *testing.T) {
		data, err := parseReturnData("0x" + allOnes)
		require.NoError(t, err)
		_, err = data.str(0)
		assert.Error(t, err)
	})

	t.Run("string offset past the payload", func(t *testing.T) {
		data, err := parseReturnData("0x" + padWord(big.NewInt(64).Bytes()))
		require.NoError(t, err)
		_, err = data.str(0)
		assert.Error(t, err)
	})

	t.Run("string length beyond int64", func(t *testing.T) {
		data, err := parseReturnData("0x" + padWord(big.NewInt(32).Bytes()) + allOnes)
		require.NoError(t, err)
		_, err = data.str(0)
		assert.Error(t, err)
	})

	t.Run("string length past the payload", func(t *testing.T) {
		data, err := parseReturnData("0x" + padWord(big.NewInt(32).Bytes()) + padWord(big.NewInt(4096).Bytes()))
		require.NoError(t, err)
		_, err = data.str(0)
		assert.Error(t, err)
	})

	t.Run("slice offset beyond int64", func(t *testing.T) {
		data, err := parseReturnData("0x" + allOnes)
		require.NoError(t, err)
		_, err = data.orgIDSlice(0)
		assert.Error(t, err)
	})

	t.Run("slice count past the payload", func(t *testing.T) {
		data, err := parseReturnData("0x" + padWord(big.NewInt(32).Bytes()) + padWord(big.NewInt(1000).Bytes()))
		require.NoError(t, err)
		_, err = data.orgIDSlice(0)
		assert.Error(t, err)
	})

	t.Run("slice count beyond int64", func(t *testing.T) {
		data, err := parseReturnData("0x" + padWord(big.NewInt(32).Bytes()) + allOnes)
		require.NoError(t, err)
		_, err = data.orgIDSlice(0)
		assert.Error(t, err)
	})
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// =============================================================================
// Log Decoding
// =============================================================================

func TestDecodeLog(t *testing.T) {
	t.Run("maps known topics onto event kinds", func(t *testing.T) {
		entry := logEntry{
			Topics: []string{
				eventTopic("OrgJsonHashChanged(bytes32,bytes32)"),
				orgA.String(),
			},
			BlockNumber: "0x64",
		}
		ev := decodeLog(entry)
		assert.Equal(t, ledger.EventOrgJSONHashChanged, ev.Kind)
		assert.Equal(t, orgA, ev.OrgID)
		assert.Equal(t, uint64(100), ev.Block)
	})

	t.Run("topic case does not matter", func(t *testing.T) {
		entry := logEntry{
			Topics: []string{
				strings.ToUpper(eventTopic("LifDepositAdded(bytes32,address,uint256)")),
				orgA.String(),
			},
		}
		ev := decodeLog(entry)
		assert.Equal(t, ledger.EventDepositAdded, ev.Kind)
	})

	t.Run("subsidiary creation carries both identifiers", func(t *testing.T) {
		entry := logEntry{
			Topics: []string{
				eventTopic("SubsidiaryCreated(bytes32,bytes32,address)"),
				orgA.String(),
				orgSub.String(),
			},
		}
		ev := decodeLog(entry)
		assert.Equal(t, ledger.EventSubsidiaryCreated, ev.Kind)
		assert.Equal(t, orgA, ev.OrgID)
		assert.Equal(t, orgSub, ev.SubOrgID)
	})

	t.Run("unknown topic keeps the raw payload for logging", func(t *testing.T) {
		entry := logEntry{Topics: []string{"0xdeadbeef"}}
		ev := decodeLog(entry)
		assert.Empty(t, ev.Kind)
		assert.Contains(t, ev.Raw, "0xdeadbeef")
	})

	t.Run("empty topic list is inert", func(t *testing.T) {
		ev := decodeLog(logEntry{})
		assert.Empty(t, ev.Kind)
	})
}

// =============================================================================
// Gateway Calls
// =============================================================================

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func rpcServer(t *testing.T, handle func(call rpcCall) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))

		result, err := json.Marshal(handle(call))
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + string(result) + `}`))
	}))
}

func newTestGateway(t *testing.T, handle func(call rpcCall) any) *Gateway {
	srv := rpcServer(t, handle)
	t.Cleanup(srv.Close)
	return NewGateway(NewClient(srv.URL, 5*time.Second), "0xregistry", "0xdeposit")
}

func encodeOrganizationTuple(id, parent domain.OrgID, uri string) string {
	jsonHash := strings.Repeat("ab", 32)
	return "0x" +
		padWord(id[:]) + // orgId
		padWord(big.NewInt(9*wordSize).Bytes()) + // offset of orgJsonUri
		jsonHash + // orgJsonHash
		padWord(parent[:]) + // parentEntity
		padWord(mustHex(strings.Repeat("11", 20))) + // owner
		padWord(mustHex(strings.Repeat("22", 20))) + // director
		padWord([]byte{1}) + // state
		padWord(nil) + // directorConfirmed
		padWord(big.NewInt(2000).Bytes()) + // deposit
		padWord(big.NewInt(int64(len(uri))).Bytes()) +
		rightPad([]byte(uri))
}

func TestGetOrganization(t *testing.T) {
	ctx := context.Background()
	uri := "https://docs.example/acme.json"

	t.Run("decodes the full tuple", func(t *testing.T) {
		gw := newTestGateway(t, func(call rpcCall) any {
			require.Equal(t, "eth_call", call.Method)
			return encodeOrganizationTuple(orgA, domain.ZeroOrgID, uri)
		})

		rec, err := gw.GetOrganization(ctx, orgA)
		require.NoError(t, err)
		assert.Equal(t, orgA, rec.OrgID)
		assert.Equal(t, uri, rec.JSONURI)
		assert.Equal(t, "0x"+strings.Repeat("ab", 32), rec.JSONHash)
		assert.True(t, rec.IsTopLevel())
		assert.Equal(t, "0x"+strings.Repeat("11", 20), rec.Owner)
		assert.Equal(t, "0x"+strings.Repeat("22", 20), rec.Director)
		assert.True(t, rec.State)
		assert.False(t, rec.DirectorConfirmed)
		assert.Equal(t, int64(2000), rec.Deposit.Int64())
	})

	t.Run("subsidiary tuple carries its parent", func(t *testing.T) {
		gw := newTestGateway(t, func(rpcCall) any {
			return encodeOrganizationTuple(orgSub, orgA, uri)
		})

		rec, err := gw.GetOrganization(ctx, orgSub)
		require.NoError(t, err)
		assert.Equal(t, orgA, rec.ParentEntity)
		assert.False(t, rec.IsTopLevel())
	})

	t.Run("empty return means not found", func(t *testing.T) {
		gw := newTestGateway(t, func(rpcCall) any { return "0x" })

		_, err := gw.GetOrganization(ctx, orgA)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("zero orgid in the tuple means not found", func(t *testing.T) {
		gw := newTestGateway(t, func(rpcCall) any {
			return encodeOrganizationTuple(domain.ZeroOrgID, domain.ZeroOrgID, "")
		})

		_, err := gw.GetOrganization(ctx, orgA)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestGetSubsidiaries(t *testing.T) {
	gw := newTestGateway(t, func(call rpcCall) any {
		require.Equal(t, "eth_call", call.Method)
		return "0x" +
			padWord(big.NewInt(wordSize).Bytes()) + // offset
			padWord(big.NewInt(2).Bytes()) + // count
			padWord(orgA[:]) +
			padWord(orgSub[:])
	})

	ids, err := gw.GetSubsidiaries(context.Background(), orgA)
	require.NoError(t, err)
	assert.Equal(t, []domain.OrgID{orgA, orgSub}, ids)
}

func TestGetCurrentBlock(t *testing.T) {
	gw := newTestGateway(t, func(call rpcCall) any {
		require.Equal(t, "eth_blockNumber", call.Method)
		return "0x10"
	})

	height, err := gw.GetCurrentBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16), height)
}

func TestGetEvents(t *testing.T) {
	gw := newTestGateway(t, func(call rpcCall) any {
		require.Equal(t, "eth_getLogs", call.Method)
		return []logEntry{
			{
				Topics:      []string{eventTopic("OrganizationCreated(bytes32,address)"), orgA.String()},
				BlockNumber: "0x5",
			},
			{Topics: []string{"0xunknown"}, BlockNumber: "0x6"},
		}
	})

	events, err := gw.GetEvents(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.EventOrganizationCreated, events[0].Kind)
	assert.Equal(t, orgA, events[0].OrgID)
	assert.Empty(t, events[1].Kind)
}

func TestClientErrors(t *testing.T) {
	t.Run("node error objects surface as errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"header not found"}}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 5*time.Second)
		var out string
		err := client.Call(context.Background(), "eth_blockNumber", &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "header not found")
	})

	t.Run("non-200 responses surface as errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 5*time.Second)
		err := client.Call(context.Background(), "eth_blockNumber", nil)
		assert.Error(t, err)
	})
}
