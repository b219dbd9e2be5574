// Package deeplink parses the app's deep-link scheme into the action and
// parameters that trigger client operations. It is the trigger surface only;
// routing the parsed link into an operation is the caller's job.
package deeplink

import (
	"net/url"

	"github.com/mediafabric/fabric-client/internal/errs"
)

// Action is the deep-link verb.
type Action string

const (
	ActionItems    Action = "items"
	ActionPlay     Action = "play"
	ActionMint     Action = "mint"
	ActionProperty Action = "property"
)

// DeepLink is a parsed deep link.
type DeepLink struct {
	Action        Action
	Contract      string
	TokenID       string
	Marketplace   string
	SKU           string
	MediaID       string
	PropertyID    string
	BackLink      string
	Authorization string
	Address       string
}

// Parse decodes a raw deep-link URL. The URL host carries the action and
// the query carries its parameters. Unknown actions are rejected.
func Parse(raw string) (*DeepLink, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.NewBadInput("url", err.Error())
	}

	action := Action(u.Host)
	switch action {
	case ActionItems, ActionPlay, ActionMint, ActionProperty:
	default:
		return nil, errs.NewBadInput("action", "unknown deep link action: "+u.Host)
	}

	q := u.Query()
	return &DeepLink{
		Action:        action,
		Contract:      q.Get("contract"),
		TokenID:       q.Get("token"),
		Marketplace:   q.Get("marketplace"),
		SKU:           q.Get("sku"),
		MediaID:       q.Get("media"),
		PropertyID:    q.Get("property"),
		BackLink:      q.Get("back_link"),
		Authorization: q.Get("authorization"),
		Address:       q.Get("address"),
	}, nil
}
