package catalog

import (
	"encoding/json"

	"github.com/mediafabric/fabric-client/pkg/logger"
)

// NFTModel is the legacy bundle entity: an owned token with its metadata and
// nested additional-media sections. Uniqueness key is the contract address,
// plus the token ID when disambiguating.
type NFTModel struct {
	ContractAddress string          `json:"contract_addr"`
	TokenID         string          `json:"token_id"`
	Metadata        json.RawMessage `json:"meta,omitempty"`
	AdditionalMedia json.RawMessage `json:"additional_media_sections,omitempty"`
	Name            string          `json:"name,omitempty"`
}

// Key returns the uniqueness key for the model.
func (n *NFTModel) Key() string {
	if n.TokenID == "" {
		return n.ContractAddress
	}
	return n.ContractAddress + ":" + n.TokenID
}

// ParseNFTList decodes an upstream array response. Items missing required
// fields are dropped, not retried.
func ParseNFTList(raw json.RawMessage, log *logger.Logger) []*NFTModel {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if log != nil {
			log.WithError(err).Warn("nft list not an array")
		}
		return nil
	}
	out := make([]*NFTModel, 0, len(items))
	for _, item := range items {
		var model NFTModel
		if err := json.Unmarshal(item, &model); err != nil {
			if log != nil {
				log.WithError(err).Debug("dropping undecodable nft entry")
			}
			continue
		}
		if model.ContractAddress == "" {
			if log != nil {
				log.Debug("dropping nft entry without contract address")
			}
			continue
		}
		out = append(out, &model)
	}
	return out
}
