package rpc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"orgtrust/internal/domain"
	"orgtrust/internal/ledger"
)

// Method selectors and event topics for the registry and deposit contracts.
var (
	selGetOrganization  = selector("getOrganization(bytes32)")
	selGetSubsidiaries  = selector("getSubsidiaries(bytes32)")
	selGetOrganizations = selector("getOrganizations()")

	topicToKind = map[string]ledger.EventKind{
		eventTopic("OrganizationCreated(bytes32,address)"):                      ledger.EventOrganizationCreated,
		eventTopic("OrganizationOwnershipTransferred(bytes32,address,address)"): ledger.EventOwnershipTransferred,
		eventTopic("OrgJsonUriChanged(bytes32,string)"):                         ledger.EventOrgJSONURIChanged,
		eventTopic("OrgJsonHashChanged(bytes32,bytes32)"):                       ledger.EventOrgJSONHashChanged,
		eventTopic("LifDepositAdded(bytes32,address,uint256)"):                  ledger.EventDepositAdded,
		eventTopic("WithdrawalRequested(bytes32,address,uint256,uint256)"):      ledger.EventWithdrawalRequested,
		eventTopic("DepositWithdrawn(bytes32,address,uint256)"):                 ledger.EventDepositWithdrawn,
		eventTopic("SubsidiaryCreated(bytes32,bytes32,address)"):                ledger.EventSubsidiaryCreated,
		eventTopic("WithdrawDelayChanged(uint256,uint256)"):                     ledger.EventWithdrawDelayChanged,
	}
)

// Gateway implements ledger.Gateway against a JSON-RPC node, with the
// registry and deposit contract addresses fixed at construction.
type Gateway struct {
	client       *Client
	registryAddr string
	depositAddr  string
}

func NewGateway(client *Client, registryAddr, depositAddr string) *Gateway {
	return &Gateway{
		client:       client,
		registryAddr: registryAddr,
		depositAddr:  depositAddr,
	}
}

func (g *Gateway) call(ctx context.Context, to, data string) (returnData, error) {
	var out string
	err := g.client.Call(ctx, "eth_call", &out,
		map[string]string{"to": to, "data": data}, "latest")
	if err != nil {
		return returnData{}, err
	}
	return parseReturnData(out)
}

// GetOrganization decodes the registry's nine-field organization tuple.
func (g *Gateway) GetOrganization(ctx context.Context, id domain.OrgID) (ledger.OrganizationRecord, error) {
	data, err := g.call(ctx, g.registryAddr, callData(selGetOrganization, id))
	if err != nil {
		return ledger.OrganizationRecord{}, fmt.Errorf("getOrganization %s: %w", id, err)
	}
	if data.words() == 0 {
		return ledger.OrganizationRecord{}, ledger.ErrNotFound
	}

	rec := ledger.OrganizationRecord{}
	if rec.OrgID, err = data.orgID(0); err != nil {
		return rec, err
	}
	if rec.OrgID.IsZero() {
		// The contract returns an empty tuple for unknown identifiers.
		return ledger.OrganizationRecord{}, ledger.ErrNotFound
	}
	if rec.JSONURI, err = data.str(1); err != nil {
		return rec, err
	}
	if rec.JSONHash, err = data.hash(2); err != nil {
		return rec, err
	}
	if rec.ParentEntity, err = data.orgID(3); err != nil {
		return rec, err
	}
	if rec.Owner, err = data.address(4); err != nil {
		return rec, err
	}
	if rec.Director, err = data.address(5); err != nil {
		return rec, err
	}
	if rec.State, err = data.boolean(6); err != nil {
		return rec, err
	}
	if rec.DirectorConfirmed, err = data.boolean(7); err != nil {
		return rec, err
	}
	if rec.Deposit, err = data.bigInt(8); err != nil {
		return rec, err
	}
	return rec, nil
}

func (g *Gateway) GetSubsidiaries(ctx context.Context, id domain.OrgID) ([]domain.OrgID, error) {
	data, err := g.call(ctx, g.registryAddr, callData(selGetSubsidiaries, id))
	if err != nil {
		return nil, fmt.Errorf("getSubsidiaries %s: %w", id, err)
	}
	return data.orgIDSlice(0)
}

func (g *Gateway) GetOrganizations(ctx context.Context) ([]domain.OrgID, error) {
	data, err := g.call(ctx, g.registryAddr, callData(selGetOrganizations))
	if err != nil {
		return nil, fmt.Errorf("getOrganizations: %w", err)
	}
	return data.orgIDSlice(0)
}

func (g *Gateway) GetCurrentBlock(ctx context.Context) (uint64, error) {
	var out string
	if err := g.client.Call(ctx, "eth_blockNumber", &out); err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return strconv.ParseUint(strings.TrimPrefix(out, "0x"), 16, 64)
}

type logEntry struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
}

// GetEvents fetches registry and deposit contract logs for the block range
// and maps them onto tagged event variants. Logs with an unknown topic are
// passed through so the reconciler can log and skip them.
func (g *Gateway) GetEvents(ctx context.Context, from, to uint64) ([]ledger.Event, error) {
	var entries []logEntry
	filter := map[string]any{
		"fromBlock": "0x" + strconv.FormatUint(from, 16),
		"toBlock":   "0x" + strconv.FormatUint(to, 16),
		"address":   []string{g.registryAddr, g.depositAddr},
	}
	if err := g.client.Call(ctx, "eth_getLogs", &entries, filter); err != nil {
		return nil, fmt.Errorf("eth_getLogs [%d,%d]: %w", from, to, err)
	}

	events := make([]ledger.Event, 0, len(entries))
	for _, entry := range entries {
		events = append(events, decodeLog(entry))
	}
	return events, nil
}

func decodeLog(entry logEntry) ledger.Event {
	ev := ledger.Event{Raw: strings.Join(entry.Topics, ",")}
	if block, err := strconv.ParseUint(strings.TrimPrefix(entry.BlockNumber, "0x"), 16, 64); err == nil {
		ev.Block = block
	}
	if len(entry.Topics) == 0 {
		return ev
	}
	kind, ok := topicToKind[strings.ToLower(entry.Topics[0])]
	if !ok {
		return ev
	}
	ev.Kind = kind
	if len(entry.Topics) > 1 {
		if id, err := domain.ParseOrgID(entry.Topics[1]); err == nil {
			ev.OrgID = id
		}
	}
	if kind == ledger.EventSubsidiaryCreated && len(entry.Topics) > 2 {
		if sub, err := domain.ParseOrgID(entry.Topics[2]); err == nil {
			ev.SubOrgID = sub
		}
	}
	return ev
}
