package ops_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/ops"
	"github.com/mediafabric/fabric-client/pkg/testutil"
)

func newOperations(t *testing.T, server *testutil.StatusFeedServer, maxChecks int) *ops.Operations {
	t.Helper()
	client := newOpsClient(t, server.URL())
	return ops.NewOperations(client, ops.NewPoller(client,
		ops.WithMaxChecks(maxChecks), ops.WithLimit(rate.Inf)))
}

func TestRedeemOfferCompletesAtThirdPoll(t *testing.T) {
	empty := []entry{}
	pending := []entry{{"op": "nft-offer-redeem:0xabc:7:offer1:someone-else", "status": "complete",
		"extra": entry{"trans_id": "T0", "tx_hash": "H0"}}}
	done := []entry{{
		"op":     "nft-offer-redeem:0xabc:7:offer1:" + testutil.CorrelationPlaceholder,
		"status": "complete",
		"extra":  entry{"trans_id": "T1", "tx_hash": "H1"},
	}}
	server := testutil.NewStatusFeedServer("tenant1", empty, pending, done)
	defer server.Close()

	operations := newOperations(t, server, 10)
	result, err := operations.RedeemOffer(context.Background(), "tenant1", "0xABC", "7", "offer1")
	require.NoError(t, err)
	assert.True(t, result.IsRedeemed)
	assert.Equal(t, "T1", result.TransactionID)
	assert.Equal(t, "H1", result.TransactionHash)
	assert.Equal(t, 3, server.Polls(), "polling must stop once the matching entry completes")

	// The submitted act body carries the opcode and correlation ID.
	acts := server.Acts()
	require.Len(t, acts, 1)
	var submitted struct {
		Op                string `json:"op"`
		ClientReferenceID string `json:"client_reference_id"`
		Contract          string `json:"contract"`
	}
	require.NoError(t, json.Unmarshal(acts[0], &submitted))
	assert.Equal(t, ops.OpOfferRedeem, submitted.Op)
	assert.NotEmpty(t, submitted.ClientReferenceID)
	assert.Equal(t, "0xABC", submitted.Contract)
}

func TestRedeemOfferIgnoresForeignCorrelation(t *testing.T) {
	// Only an entry bearing someone else's correlation ID ever completes.
	foreign := []entry{{"op": "nft-offer-redeem:0xabc:7:offer1:not-ours", "status": "complete",
		"extra": entry{"trans_id": "T0"}}}
	server := testutil.NewStatusFeedServer("tenant1", foreign)
	defer server.Close()

	operations := newOperations(t, server, 4)
	result, err := operations.RedeemOffer(context.Background(), "tenant1", "0xabc", "7", "offer1")
	require.NoError(t, err)
	assert.False(t, result.IsRedeemed, "timeout is a value, not an error")
}

func TestMintEntitlement(t *testing.T) {
	done := []entry{{
		"op":     "nft-claim:0xmarket:sku42",
		"status": "complete",
		"extra":  entry{"token_addr": "0xminted", "token_id": 55, "tx_hash": "HM"},
	}}
	server := testutil.NewStatusFeedServer("tenant1", done)
	defer server.Close()

	operations := newOperations(t, server, 5)
	result, err := operations.MintEntitlement(context.Background(), "tenant1", "0xMARKET", "sku42", "")
	require.NoError(t, err)
	assert.True(t, result.IsMinted)
	assert.Equal(t, "0xminted", result.Contract)
	assert.Equal(t, "55", result.TokenID)
	assert.Equal(t, "HM", result.TransactionHash)
}

func TestOpenPack(t *testing.T) {
	done := []entry{{
		"op":     "nft-open:0xpack:3",
		"status": "complete",
		"extra":  entry{"token_addr": "0xcontents", "token_id": 12, "tx_hash": "HP"},
	}}
	server := testutil.NewStatusFeedServer("tenant1", done)
	defer server.Close()

	operations := newOperations(t, server, 5)
	result, err := operations.OpenPack(context.Background(), "tenant1", "0xPACK", "3")
	require.NoError(t, err)
	assert.True(t, result.IsComplete)
	assert.Equal(t, "0xcontents", result.Contract)
	assert.Equal(t, "12", result.TokenID)
}

func TestOperationInputValidation(t *testing.T) {
	server := testutil.NewStatusFeedServer("tenant1")
	defer server.Close()
	operations := newOperations(t, server, 1)
	ctx := context.Background()

	var badInput *errs.BadInputError
	_, err := operations.MintEntitlement(ctx, "tenant1", "", "sku", "")
	require.ErrorAs(t, err, &badInput)
	_, err = operations.RedeemOffer(ctx, "tenant1", "0xabc", "", "offer1")
	require.ErrorAs(t, err, &badInput)
	_, err = operations.OpenPack(ctx, "tenant1", "0xabc", "")
	require.ErrorAs(t, err, &badInput)
	assert.Empty(t, server.Acts(), "invalid input must not reach the act endpoint")
}
