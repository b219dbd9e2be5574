package ops

import (
	"context"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

// Operations composes submit and poll for the wallet write paths. Each call
// validates its inputs, submits one act request, then runs its own poll loop
// with a matcher for the submitted operation's identifying fields.
type Operations struct {
	client *Client
	poller *Poller
	log    *logger.Logger
}

// NewOperations creates the operations facade.
func NewOperations(client *Client, poller *Poller) *Operations {
	return &Operations{client: client, poller: poller, log: client.log}
}

// MintResult is the outcome of an entitlement mint.
type MintResult struct {
	IsMinted        bool
	Contract        string
	TokenID         string
	TransactionHash string
}

// RedeemResult is the outcome of an offer redemption.
type RedeemResult struct {
	IsRedeemed      bool
	TransactionID   string
	TransactionHash string
}

// PackResult is the outcome of a pack opening.
type PackResult struct {
	IsComplete      bool
	Contract        string
	TokenID         string
	TransactionHash string
}

type claimRequest struct {
	Op                string `json:"op"`
	ClientReferenceID string `json:"client_reference_id"`
	Marketplace       string `json:"marketplace"`
	SKU               string `json:"sku"`
	Entitlement       string `json:"entitlement,omitempty"`
}

// MintEntitlement claims an item from a marketplace listing, optionally
// carrying a signed entitlement, and waits for the mint to land on chain.
// An incomplete result after the poll budget is a timeout, not an error.
func (o *Operations) MintEntitlement(ctx context.Context, tenantID, marketplaceID, sku, entitlement string) (MintResult, error) {
	if marketplaceID == "" {
		return MintResult{}, errs.NewBadInput("marketplaceID", "empty")
	}
	if sku == "" {
		return MintResult{}, errs.NewBadInput("sku", "empty")
	}

	req := claimRequest{
		Op:                OpClaim,
		ClientReferenceID: NewCorrelationID(),
		Marketplace:       marketplaceID,
		SKU:               sku,
		Entitlement:       entitlement,
	}
	if _, err := o.client.Act(ctx, tenantID, req); err != nil {
		return MintResult{}, err
	}
	o.log.WithField("marketplace", marketplaceID).WithField("sku", sku).Info("mint submitted")

	result, err := o.poller.Poll(ctx, tenantID, func(parsed *ParsedOp, _ *StatusEntry) bool {
		return parsed.Kind == OpClaim && sameContract(parsed.Contract, marketplaceID) && parsed.SKU == sku
	})
	if err != nil {
		return MintResult{}, err
	}
	if !result.Complete {
		return MintResult{}, nil
	}
	return MintResult{
		IsMinted:        true,
		Contract:        result.Entry.Extra.ContractAddress,
		TokenID:         result.Entry.Extra.TokenID.String(),
		TransactionHash: result.Entry.Extra.TransactionHash,
	}, nil
}

type redeemRequest struct {
	Op                string `json:"op"`
	ClientReferenceID string `json:"client_reference_id"`
	Contract          string `json:"contract"`
	TokenID           string `json:"token_id"`
	OfferID           string `json:"offer_id"`
}

// RedeemOffer redeems an offer attached to an owned token. The poll matcher
// requires the correlation ID generated here, so a feed entry for someone
// else's redemption of the same offer is never claimed as ours.
func (o *Operations) RedeemOffer(ctx context.Context, tenantID, contract, tokenID, offerID string) (RedeemResult, error) {
	if contract == "" {
		return RedeemResult{}, errs.NewBadInput("contract", "empty")
	}
	if tokenID == "" {
		return RedeemResult{}, errs.NewBadInput("tokenID", "empty")
	}
	if offerID == "" {
		return RedeemResult{}, errs.NewBadInput("offerID", "empty")
	}

	correlationID := NewCorrelationID()
	req := redeemRequest{
		Op:                OpOfferRedeem,
		ClientReferenceID: correlationID,
		Contract:          contract,
		TokenID:           tokenID,
		OfferID:           offerID,
	}
	if _, err := o.client.Act(ctx, tenantID, req); err != nil {
		return RedeemResult{}, err
	}
	o.log.WithField("contract", contract).WithField("offer_id", offerID).Info("redeem submitted")

	result, err := o.poller.Poll(ctx, tenantID, func(parsed *ParsedOp, _ *StatusEntry) bool {
		return parsed.Kind == OpOfferRedeem && parsed.CorrelationID == correlationID
	})
	if err != nil {
		return RedeemResult{}, err
	}
	if !result.Complete {
		return RedeemResult{}, nil
	}
	return RedeemResult{
		IsRedeemed:      true,
		TransactionID:   result.Entry.Extra.TransactionID,
		TransactionHash: result.Entry.Extra.TransactionHash,
	}, nil
}

type packOpenRequest struct {
	Op                string `json:"op"`
	ClientReferenceID string `json:"client_reference_id"`
	Contract          string `json:"contract"`
	TokenID           string `json:"token_id"`
}

// OpenPack burns a pack token and waits for its contents to be minted.
func (o *Operations) OpenPack(ctx context.Context, tenantID, contract, tokenID string) (PackResult, error) {
	if contract == "" {
		return PackResult{}, errs.NewBadInput("contract", "empty")
	}
	if tokenID == "" {
		return PackResult{}, errs.NewBadInput("tokenID", "empty")
	}

	req := packOpenRequest{
		Op:                OpPackOpen,
		ClientReferenceID: NewCorrelationID(),
		Contract:          contract,
		TokenID:           tokenID,
	}
	if _, err := o.client.Act(ctx, tenantID, req); err != nil {
		return PackResult{}, err
	}
	o.log.WithField("contract", contract).WithField("token_id", tokenID).Info("pack open submitted")

	result, err := o.poller.Poll(ctx, tenantID, func(parsed *ParsedOp, _ *StatusEntry) bool {
		return parsed.Kind == OpPackOpen && sameContract(parsed.Contract, contract) && parsed.TokenID == tokenID
	})
	if err != nil {
		return PackResult{}, err
	}
	if !result.Complete {
		return PackResult{}, nil
	}
	return PackResult{
		IsComplete:      true,
		Contract:        result.Entry.Extra.ContractAddress,
		TokenID:         result.Entry.Extra.TokenID.String(),
		TransactionHash: result.Entry.Extra.TransactionHash,
	}, nil
}
