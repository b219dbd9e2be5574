package ops

import (
	"fmt"
	"strings"
)

// Opcodes as they appear in the status feed's op field.
const (
	OpClaim       = "nft-claim"
	OpOfferRedeem = "nft-offer-redeem"
	OpPackOpen    = "nft-open"
)

// ParsedOp is a decoded status-feed op string. The op field encodes
// colon-separated positional fields whose layout depends on the opcode, so
// each opcode has its own fixed schema and the field count is validated
// before any positional access.
type ParsedOp struct {
	Kind          string
	Contract      string
	TokenID       string
	OfferID       string
	SKU           string
	CorrelationID string
}

// opFieldCounts pins the exact field count per opcode.
var opFieldCounts = map[string]int{
	OpClaim:       3, // kind : marketplace-contract : sku
	OpOfferRedeem: 5, // kind : contract : token-id : offer-id : correlation-id
	OpPackOpen:    3, // kind : contract : token-id
}

// ParseOp decodes an op string against its opcode's schema.
func ParseOp(op string) (*ParsedOp, error) {
	fields := strings.Split(op, ":")
	kind := fields[0]
	want, ok := opFieldCounts[kind]
	if !ok {
		return nil, fmt.Errorf("unknown opcode %q", kind)
	}
	if len(fields) != want {
		return nil, fmt.Errorf("opcode %q: expected %d fields, got %d", kind, want, len(fields))
	}

	parsed := &ParsedOp{Kind: kind}
	switch kind {
	case OpClaim:
		parsed.Contract = fields[1]
		parsed.SKU = fields[2]
	case OpOfferRedeem:
		parsed.Contract = fields[1]
		parsed.TokenID = fields[2]
		parsed.OfferID = fields[3]
		parsed.CorrelationID = fields[4]
	case OpPackOpen:
		parsed.Contract = fields[1]
		parsed.TokenID = fields[2]
	}
	return parsed, nil
}

// sameContract compares contract addresses case-insensitively: the feed
// lowercases addresses while callers usually hold checksummed forms.
func sameContract(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, "0x"), strings.TrimPrefix(b, "0x"))
}
