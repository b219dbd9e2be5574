package ops_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mediafabric/fabric-client/internal/httputil"
	"github.com/mediafabric/fabric-client/internal/ops"
	"github.com/mediafabric/fabric-client/pkg/logger"
	"github.com/mediafabric/fabric-client/pkg/testutil"
)

func newOpsClient(t *testing.T, baseURL string) *ops.Client {
	t.Helper()
	client, err := ops.NewClient(ops.ClientConfig{
		BaseURL: baseURL,
		Tokens:  httputil.StaticToken("bearer-token"),
		Logger:  logger.NewNop(),
	})
	require.NoError(t, err)
	return client
}

// feed entries as plain maps keep the fixtures close to the wire shape.
type entry = map[string]any

func TestPollTerminatesAfterBudget(t *testing.T) {
	// The feed never contains a matching completed entry.
	server := testutil.NewStatusFeedServer("tenant1",
		[]entry{{"op": "nft-open:0xother:1", "status": "pending"}},
	)
	defer server.Close()

	poller := ops.NewPoller(newOpsClient(t, server.URL()),
		ops.WithMaxChecks(5), ops.WithLimit(rate.Inf))

	result, err := poller.Poll(context.Background(), "tenant1", func(*ops.ParsedOp, *ops.StatusEntry) bool {
		return true
	})
	require.NoError(t, err, "budget exhaustion is a value, not an error")
	assert.False(t, result.Complete)
	assert.Equal(t, 5, result.Checks)
	assert.Equal(t, 5, server.Polls(), "one feed request per tick, then stop")
}

func TestPollStopsAtFirstMatch(t *testing.T) {
	// Iterations 1 and 2 serve no match; iteration 3 completes.
	empty := []entry{}
	pending := []entry{{"op": "nft-open:0xdef:9", "status": "pending"}}
	done := []entry{{
		"op":     "nft-open:0xdef:9",
		"status": "complete",
		"extra":  entry{"tx_hash": "H9"},
	}}
	server := testutil.NewStatusFeedServer("tenant1", empty, pending, done)
	defer server.Close()

	poller := ops.NewPoller(newOpsClient(t, server.URL()),
		ops.WithMaxChecks(10), ops.WithLimit(rate.Inf))

	result, err := poller.Poll(context.Background(), "tenant1", func(parsed *ops.ParsedOp, _ *ops.StatusEntry) bool {
		return parsed.Kind == ops.OpPackOpen && parsed.TokenID == "9"
	})
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, 3, result.Checks)
	assert.Equal(t, 3, server.Polls(), "polling must stop at the match")
	assert.Equal(t, "H9", result.Entry.Extra.TransactionHash)
}

func TestPollSkipsMalformedOpStrings(t *testing.T) {
	feed := []entry{
		// Wrong field count for its opcode: skipped, not fatal.
		{"op": "nft-open:0xdef", "status": "complete"},
		{"op": "nft-open:0xdef:9", "status": "complete", "extra": entry{}},
	}
	server := testutil.NewStatusFeedServer("tenant1", feed)
	defer server.Close()

	poller := ops.NewPoller(newOpsClient(t, server.URL()),
		ops.WithMaxChecks(3), ops.WithLimit(rate.Inf))

	result, err := poller.Poll(context.Background(), "tenant1", func(parsed *ops.ParsedOp, _ *ops.StatusEntry) bool {
		return parsed.Kind == ops.OpPackOpen
	})
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, "9", result.Parsed.TokenID)
}

func TestPollContextCancellation(t *testing.T) {
	server := testutil.NewStatusFeedServer("tenant1", []entry{})
	defer server.Close()

	poller := ops.NewPoller(newOpsClient(t, server.URL()), ops.WithMaxChecks(1000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := poller.Poll(ctx, "tenant1", func(*ops.ParsedOp, *ops.StatusEntry) bool { return false })
	require.Error(t, err)
}
