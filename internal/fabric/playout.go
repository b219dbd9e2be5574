package fabric

import (
	"context"
	"net/url"
	"strings"

	"github.com/mediafabric/fabric-client/internal/errs"
)

// Delivery scheme names as they appear in the playout options document.
const (
	SchemeHLSClear     = "hls-clear"
	SchemeHLSAES128    = "hls-aes128"
	SchemeHLSSampleAES = "hls-sample-aes"
	SchemeHLSFairPlay  = "hls-fairplay"
)

// schemePriority is the fixed selection order. No fallback exists beyond it:
// if nothing matches, playout fails hard.
var schemePriority = []string{SchemeHLSClear, SchemeHLSAES128, SchemeHLSSampleAES, SchemeHLSFairPlay}

// EncryptionCapability is the strongest scheme the player can handle.
type EncryptionCapability int

const (
	CapabilityClear EncryptionCapability = iota
	CapabilityAES128
	CapabilitySampleAES
	CapabilityFairPlay
)

func (c EncryptionCapability) allows(scheme string) bool {
	switch scheme {
	case SchemeHLSClear:
		return true
	case SchemeHLSAES128:
		return c >= CapabilityAES128
	case SchemeHLSSampleAES:
		return c >= CapabilitySampleAES
	case SchemeHLSFairPlay:
		return c >= CapabilityFairPlay
	}
	return false
}

// DeliveryOption is one scheme-keyed entry of the playout options document.
type DeliveryOption struct {
	URI        string             `json:"uri"`
	Properties DeliveryProperties `json:"properties"`
}

// DeliveryProperties carries DRM details for encrypted schemes.
type DeliveryProperties struct {
	LicenseServers []string `json:"license_servers"`
	CertURL        string   `json:"cert_url"`
}

// PlayoutOptions is the scheme-keyed options document for one offering.
type PlayoutOptions map[string]DeliveryOption

// FairPlayInfo is returned for the FairPlay scheme so the caller can
// register the asset with its content-key session before playback.
type FairPlayInfo struct {
	LicenseServerURL string
	CertURL          string
}

// Playable is a selected, fully-resolved delivery option.
type Playable struct {
	Scheme   string
	URL      string
	FairPlay *FairPlayInfo
}

// SelectScheme picks the delivery option to play: first scheme in the fixed
// priority order that is both present and within the capability. Absence of
// any recognized scheme is a hard failure, not a fallback.
func SelectScheme(options PlayoutOptions, capability EncryptionCapability) (string, DeliveryOption, error) {
	for _, scheme := range schemePriority {
		if !capability.allows(scheme) {
			continue
		}
		if opt, ok := options[scheme]; ok {
			return scheme, opt, nil
		}
	}
	return "", DeliveryOption{}, errs.NewUnexpectedResponse("no playable delivery scheme offered", nil)
}

// PlayoutURL fetches the offering's playout options and resolves a playable
// stream URL for the given capability.
func (r *Resolver) PlayoutURL(ctx context.Context, link ContentLink, offering string, capability EncryptionCapability) (*Playable, error) {
	if offering == "" {
		offering = "default"
	}
	token, err := r.authToken(true)
	if err != nil {
		return nil, err
	}

	repPath := strings.TrimRight(link.objectPath(), "/") + "/rep/playout/" + offering
	q := url.Values{}
	q.Set("authorization", token)

	var options PlayoutOptions
	if err := r.client.GetPublic(ctx, repPath+"/options.json", q, &options); err != nil {
		return nil, err
	}

	scheme, opt, err := SelectScheme(options, capability)
	if err != nil {
		return nil, err
	}
	if opt.URI == "" {
		return nil, errs.NewUnexpectedResponse("delivery option missing uri", nil)
	}

	playable := &Playable{
		Scheme: scheme,
		URL:    r.endpoint + repPath + "/" + strings.TrimLeft(opt.URI, "/") + "?" + q.Encode(),
	}
	if scheme == SchemeHLSFairPlay {
		if len(opt.Properties.LicenseServers) == 0 {
			return nil, errs.NewUnexpectedResponse("fairplay option missing license server", nil)
		}
		playable.FairPlay = &FairPlayInfo{
			LicenseServerURL: opt.Properties.LicenseServers[0],
			CertURL:          opt.Properties.CertURL,
		}
	}
	r.log.WithField("scheme", scheme).Debug("playout option selected")
	return playable, nil
}
