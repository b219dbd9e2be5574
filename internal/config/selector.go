package config

import "github.com/mediafabric/fabric-client/internal/errs"

// EndpointSelector picks the endpoint to use from a candidate list. The
// abstraction exists so a failover strategy can be introduced without
// touching call sites.
type EndpointSelector interface {
	Select(candidates []string) (string, error)
}

// FirstEndpoint always selects index 0. This is the default strategy: no
// failover across the remaining candidates is attempted.
type FirstEndpoint struct{}

// Select returns the first candidate.
func (FirstEndpoint) Select(candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", errs.NewConfigError("no endpoint candidates")
	}
	return candidates[0], nil
}
